package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/galaxybank/backoffice/catalog"
	"github.com/galaxybank/backoffice/ledger"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// DB is the shared database connection used by the plain CRUD handlers;
// money-moving operations go through Engine instead.
var DB *sql.DB

// Engine executes every ledger and billing operation.
var Engine *ledger.Engine

// Catalog syncs the external product feed.
var Catalog *catalog.Syncer

// AuthUser and AuthPass guard the API when set.
var AuthUser, AuthPass string

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeLedgerError translates the engine error taxonomy to HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, ledger.ErrDuplicatePendingRequest):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientCreditLimit),
		errors.Is(err, ledger.ErrCreditNotApproved),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrExceedsIncomeMultiple),
		errors.Is(err, ledger.ErrInvalidApprovalAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("engine operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// BasicAuth is middleware that enforces HTTP Basic Authentication.
func BasicAuth(next http.Handler) http.Handler {
	// If no credentials are configured, skip auth
	if AuthUser == "" && AuthPass == "" {
		slog.Warn("auth credentials not set, API is unauthenticated")
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != AuthUser || p != AuthPass {
			w.Header().Set("WWW-Authenticate", `Basic realm="backoffice"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
