package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/galaxybank/backoffice/models"
)

// ListInvoices lists an account's invoices
// @Summary      List invoices
// @Description  The account's monthly invoices, newest month first. Late interest
// @Description  is re-evaluated for every closed or overdue invoice before listing.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  Response{data=[]models.Invoice}
// @Router       /accounts/{id}/invoices [get]
// @Security     BasicAuth
func ListInvoices(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	invoices, err := Engine.ListInvoices(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	// Accrue on read so listed amounts are current.
	for i, inv := range invoices {
		if inv.Status == models.InvoiceClosed || inv.Status == models.InvoiceOverdue {
			updated, err := Engine.AccrueLateInterest(inv.ID)
			if err != nil {
				writeLedgerError(w, err)
				return
			}
			invoices[i] = updated
		}
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice retrieves a single invoice
// @Summary      Get invoice
// @Description  Invoice state with late interest re-evaluated when closed or overdue.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [get]
// @Security     BasicAuth
func GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	inv, err := Engine.GetInvoice(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if inv.Status == models.InvoiceClosed || inv.Status == models.InvoiceOverdue {
		if inv, err = Engine.AccrueLateInterest(id); err != nil {
			writeLedgerError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, inv)
}

// GetInvoiceItems lists an invoice's line items
// @Summary      List invoice line items
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=[]models.InvoiceLineItem}
// @Router       /invoices/{id}/items [get]
// @Security     BasicAuth
func GetInvoiceItems(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	items, err := Engine.InvoiceLineItems(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if items == nil {
		items = []models.InvoiceLineItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetInvoicePayments lists an invoice's payment records
// @Summary      List invoice payments
// @Description  Scheduled and applied payment rows for the invoice.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=[]models.InvoicePayment}
// @Router       /invoices/{id}/payments [get]
// @Security     BasicAuth
func GetInvoicePayments(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	payments, err := Engine.InvoicePayments(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if payments == nil {
		payments = []models.InvoicePayment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// CloseInvoice ends an invoice's accumulation month
// @Summary      Close invoice
// @Description  Move an open invoice to closed; new installments then land on later months.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      409  {object}  Response{error=string}
// @Router       /invoices/{id}/close [post]
// @Security     BasicAuth
func CloseInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	inv, err := Engine.CloseInvoice(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// PayInvoice settles the invoice in full from the account's balance
// @Summary      Pay invoice
// @Description  Debit the full remaining amount (total + late interest - paid) from the
// @Description  account's balance and restore credit limit for credit-financed installments.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      400  {object}  Response{error=string}
// @Failure      409  {object}  Response{error=string}
// @Router       /invoices/{id}/pay [post]
// @Security     BasicAuth
func PayInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	inv, err := Engine.PayFull(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// PayInstallment settles a single scheduled payment
// @Summary      Pay installment
// @Description  Debit one scheduled installment from the account's balance; the parent
// @Description  invoice flips to paid once nothing remains.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {object}  Response{data=models.InvoicePayment}
// @Failure      400  {object}  Response{error=string}
// @Failure      409  {object}  Response{error=string}
// @Router       /payments/{id}/pay [post]
// @Security     BasicAuth
func PayInstallment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	payment, err := Engine.PayInstallment(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// RescheduleInvoice moves unpaid scheduled payments to a new due day
// @Summary      Reschedule due dates
// @Description  Re-date every unpaid, future-dated scheduled payment to the new day of
// @Description  month, clamped to each month's length.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id        path      int                     true  "Invoice ID"
// @Param        schedule  body      models.RescheduleInput  true  "New due day"
// @Success      200       {object}  Response{data=[]models.InvoicePayment}
// @Failure      400       {object}  Response{error=string}
// @Router       /invoices/{id}/reschedule [post]
// @Security     BasicAuth
func RescheduleInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.RescheduleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := Engine.RescheduleDueDates(id, input.DueDay); err != nil {
		writeLedgerError(w, err)
		return
	}
	payments, err := Engine.InvoicePayments(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
