package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/galaxybank/backoffice/models"
)

// CreateAccount opens a new account
// @Summary      Create account
// @Description  Open a new client account credited with the signup grant.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        account  body      models.AccountInput  true  "Account contents"
// @Success      201      {object}  Response{data=models.Account}
// @Router       /accounts [post]
// @Security     BasicAuth
func CreateAccount(w http.ResponseWriter, r *http.Request) {
	var input models.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	acc, err := Engine.CreateAccount(input.Name)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// GetAccount retrieves a single account by ID
// @Summary      Get account
// @Description  Get balance and credit limit state of a specific account.
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  Response{data=models.Account}
// @Failure      404  {object}  Response{error=string}
// @Router       /accounts/{id} [get]
// @Security     BasicAuth
func GetAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	acc, err := Engine.GetAccount(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// ListAccounts lists all accounts
// @Summary      List accounts
// @Description  Get a list of all accounts with balances and credit state.
// @Tags         accounts
// @Produce      json
// @Param        search  query     string  false  "Search by name"
// @Success      200  {object}  Response{data=[]models.Account}
// @Router       /accounts [get]
// @Security     BasicAuth
func ListAccounts(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, name, balance, credit_limit, credit_approved, created_at, updated_at FROM accounts`
	var args []any
	if search := r.URL.Query().Get("search"); search != "" {
		query += " WHERE name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name"

	rows, err := DB.Query(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.CreditLimit, &a.CreditApproved, &a.CreatedAt, &a.UpdatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		accounts = append(accounts, a)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetCreditHistory lists an account's credit ledger entries
// @Summary      Credit ledger history
// @Description  Append-only record of every limit-affecting event.
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  Response{data=[]models.CreditLedgerEntry}
// @Router       /accounts/{id}/credit-history [get]
// @Security     BasicAuth
func GetCreditHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	entries, err := Engine.CreditHistory(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if entries == nil {
		entries = []models.CreditLedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetTransferHistory lists an account's transfers
// @Summary      Transfer history
// @Description  Sent and received transfer rows for the account.
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  Response{data=[]models.TransferEntry}
// @Router       /accounts/{id}/transfers [get]
// @Security     BasicAuth
func GetTransferHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	entries, err := Engine.TransferHistory(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if entries == nil {
		entries = []models.TransferEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// SetDueDay configures the account's invoice due day
// @Summary      Configure invoice due day
// @Description  Set the day of month (1-28) on which the account's invoices fall due.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id       path      int                 true  "Account ID"
// @Param        setting  body      models.DueDayInput  true  "Due day"
// @Success      200      {object}  Response{data=map[string]int}
// @Router       /accounts/{id}/due-day [put]
// @Security     BasicAuth
func SetDueDay(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.DueDayInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := Engine.SetDueDay(id, input.DueDay); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"due_day": input.DueDay})
}
