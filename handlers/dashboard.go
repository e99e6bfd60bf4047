package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/galaxybank/backoffice/models"
)

// DashboardSummary aggregates the book for the back-office landing page.
type DashboardSummary struct {
	Accounts              int          `json:"accounts"`
	TotalBalance          models.Money `json:"total_balance"`
	TotalCreditLimit      models.Money `json:"total_credit_limit"`
	PendingCreditRequests int          `json:"pending_credit_requests"`
	OpenInvoices          int          `json:"open_invoices"`
	OverdueInvoices       int          `json:"overdue_invoices"`
	OutstandingInvoiced   models.Money `json:"outstanding_invoiced"`
	PurchasesToday        int          `json:"purchases_today"`
}

// GetDashboard returns book-wide aggregates
// @Summary      Dashboard summary
// @Description  Aggregate balances, credit exposure and invoice state across all accounts.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Response{data=DashboardSummary}
// @Router       /dashboard [get]
// @Security     BasicAuth
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	var s DashboardSummary

	if err := DB.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(CAST(balance AS REAL)), 0),
		COALESCE(SUM(CASE WHEN credit_approved = 1 THEN CAST(credit_limit AS REAL) ELSE 0 END), 0)
		FROM accounts`).Scan(&s.Accounts, &s.TotalBalance, &s.TotalCreditLimit); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := DB.QueryRow(`SELECT COUNT(*) FROM credit_requests WHERE status = 'pending'`).
		Scan(&s.PendingCreditRequests); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := DB.QueryRow(`SELECT
		COALESCE(SUM(CASE WHEN status = 'open' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'overdue' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status IN ('open', 'closed', 'overdue')
			THEN CAST(total AS REAL) + CAST(late_interest AS REAL) - CAST(paid AS REAL) ELSE 0 END), 0)
		FROM invoices`).Scan(&s.OpenInvoices, &s.OverdueInvoices, &s.OutstandingInvoiced); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := DB.QueryRow(`SELECT COUNT(*) FROM purchases WHERE DATE(created_at) = DATE('now')`).
		Scan(&s.PurchasesToday); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.TotalBalance = s.TotalBalance.Round(models.MoneyPlaces)
	s.TotalCreditLimit = s.TotalCreditLimit.Round(models.MoneyPlaces)
	s.OutstandingInvoiced = s.OutstandingInvoiced.Round(models.MoneyPlaces)
	if s.OutstandingInvoiced.LessThan(decimal.Zero) {
		s.OutstandingInvoiced = decimal.Zero
	}
	writeJSON(w, http.StatusOK, s)
}
