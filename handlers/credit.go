package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/galaxybank/backoffice/models"
)

// CreateCreditRequest submits a credit limit request
// @Summary      Submit credit request
// @Description  File a limit request; at most one pending request per account.
// @Tags         credit
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreditRequestInput  true  "Request contents"
// @Success      201      {object}  Response{data=models.CreditRequest}
// @Failure      400      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /credit/requests [post]
// @Security     BasicAuth
func CreateCreditRequest(w http.ResponseWriter, r *http.Request) {
	var input models.CreditRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	requested, err := models.ParseMoney(input.RequestedAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid requested_amount")
		return
	}
	income, err := models.ParseMoney(input.MonthlyIncome)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid monthly_income")
		return
	}

	req, err := Engine.SubmitCreditRequest(input.AccountID, requested, income, input.Occupation, input.Justification)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListCreditRequests lists credit requests
// @Summary      List credit requests
// @Description  Requests for evaluation, optionally filtered by status or account.
// @Tags         credit
// @Produce      json
// @Param        status      query     string  false  "Filter by status"
// @Param        account_id  query     int     false  "Filter by account"
// @Success      200         {object}  Response{data=[]models.CreditRequest}
// @Router       /credit/requests [get]
// @Security     BasicAuth
func ListCreditRequests(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.Atoi(r.URL.Query().Get("account_id"))
	reqs, err := Engine.ListCreditRequests(accountID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reqs == nil {
		reqs = []models.CreditRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

// GetCreditRequest retrieves a single request by ID
// @Summary      Get credit request
// @Tags         credit
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  Response{data=models.CreditRequest}
// @Failure      404  {object}  Response{error=string}
// @Router       /credit/requests/{id} [get]
// @Security     BasicAuth
func GetCreditRequest(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	req, err := Engine.GetCreditRequest(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ApproveCreditRequest approves a pending request
// @Summary      Approve credit request
// @Description  Grant the request and set the account's credit limit; the approved amount defaults to the requested amount.
// @Tags         credit
// @Accept       json
// @Produce      json
// @Param        id        path      int                        true  "Request ID"
// @Param        decision  body      models.CreditDecisionInput true  "Approval details"
// @Success      200       {object}  Response{data=models.CreditRequest}
// @Failure      409       {object}  Response{error=string}
// @Router       /credit/requests/{id}/approve [post]
// @Security     BasicAuth
func ApproveCreditRequest(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.CreditDecisionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	req, err := Engine.ApproveCreditRequest(id, input.Evaluator, input.ApprovedAmount, input.Notes)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// RejectCreditRequest rejects a pending request
// @Summary      Reject credit request
// @Tags         credit
// @Accept       json
// @Produce      json
// @Param        id        path      int                        true  "Request ID"
// @Param        decision  body      models.CreditDecisionInput true  "Rejection details"
// @Success      200       {object}  Response{data=models.CreditRequest}
// @Failure      409       {object}  Response{error=string}
// @Router       /credit/requests/{id}/reject [post]
// @Security     BasicAuth
func RejectCreditRequest(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.CreditDecisionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	req, err := Engine.RejectCreditRequest(id, input.Evaluator, input.Notes)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// CancelCreditRequest cancels the client's own pending request
// @Summary      Cancel credit request
// @Tags         credit
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  Response{data=models.CreditRequest}
// @Failure      409  {object}  Response{error=string}
// @Router       /credit/requests/{id}/cancel [post]
// @Security     BasicAuth
func CancelCreditRequest(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	req, err := Engine.CancelCreditRequest(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
