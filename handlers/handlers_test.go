package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxybank/backoffice/db"
	"github.com/galaxybank/backoffice/ledger"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))

	DB = database
	Engine = ledger.New(database)
	AuthUser, AuthPass = "", ""

	r := chi.NewRouter()
	r.Post("/accounts", CreateAccount)
	r.Get("/accounts/{id}", GetAccount)
	r.Post("/transfers", CreateTransfer)
	r.Post("/credit/requests", CreateCreditRequest)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetAccount(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/accounts", map[string]string{"name": "Alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Balance string `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Alice", created.Data.Name)
	assert.Equal(t, "1000", created.Data.Balance)

	w = doJSON(t, r, http.MethodGet, "/accounts/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/accounts/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAccountValidation(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/accounts", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferErrorMapping(t *testing.T) {
	r := setupRouter(t)
	doJSON(t, r, http.MethodPost, "/accounts", map[string]string{"name": "Alice"})
	doJSON(t, r, http.MethodPost, "/accounts", map[string]string{"name": "Bob"})

	w := doJSON(t, r, http.MethodPost, "/transfers", map[string]any{
		"from_account_id": 1, "to_account_id": 2, "amount": "250,00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Insufficient funds maps to 400.
	w = doJSON(t, r, http.MethodPost, "/transfers", map[string]any{
		"from_account_id": 1, "to_account_id": 2, "amount": "100000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown counterparty maps to 404.
	w = doJSON(t, r, http.MethodPost, "/transfers", map[string]any{
		"from_account_id": 1, "to_account_id": 42, "amount": "10",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDuplicatePendingRequestMapsToConflict(t *testing.T) {
	r := setupRouter(t)
	doJSON(t, r, http.MethodPost, "/accounts", map[string]string{"name": "Alice"})

	body := map[string]any{
		"account_id": 1, "requested_amount": "2000",
		"monthly_income": "3000", "justification": "travel",
	}
	w := doJSON(t, r, http.MethodPost, "/credit/requests", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/credit/requests", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}
