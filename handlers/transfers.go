package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/galaxybank/backoffice/models"
)

// CreateTransfer moves money between two accounts
// @Summary      Create transfer
// @Description  Atomically debit the sender, credit the receiver and write the paired history rows.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        transfer  body      models.TransferInput  true  "Transfer contents"
// @Success      201       {object}  Response{data=models.TransferEntry}
// @Failure      400       {object}  Response{error=string}
// @Router       /transfers [post]
// @Security     BasicAuth
func CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var input models.TransferInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	amount, err := models.ParseMoney(input.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	entry, err := Engine.Transfer(input.FromAccountID, input.ToAccountID, amount, input.Note)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
