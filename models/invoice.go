package models

import "time"

// InvoiceStatus is the closed set of invoice states. Status advances
// open -> closed -> {paid | overdue}; overdue accrues interest until paid.
type InvoiceStatus string

const (
	InvoiceOpen      InvoiceStatus = "open"
	InvoiceClosed    InvoiceStatus = "closed"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice is one calendar month's accumulation of installment charges for a
// client. At most one invoice exists per (account, reference month).
type Invoice struct {
	ID             int           `json:"id"`
	AccountID      int           `json:"account_id"`
	ReferenceMonth string        `json:"reference_month"` // first-of-month, YYYY-MM-DD
	DueDate        string        `json:"due_date"`
	Total          Money         `json:"total"`
	Paid           Money         `json:"paid"`
	LateInterest   Money         `json:"late_interest"`
	Status         InvoiceStatus `json:"status"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	// Computed fields
	AmountDue Money `json:"amount_due"`
}

// Remaining returns total + accrued interest - paid.
func (i *Invoice) Remaining() Money {
	return i.Total.Add(i.LateInterest).Sub(i.Paid)
}

// InvoiceLineItem is one scheduled fraction of a credit-financed purchase,
// tied to exactly one invoice. Immutable once written.
type InvoiceLineItem struct {
	ID               int       `json:"id"`
	InvoiceID        int       `json:"invoice_id"`
	PurchaseID       int       `json:"purchase_id"`
	InstallmentNo    int       `json:"installment_no"`
	InstallmentTotal int       `json:"installment_total"`
	Amount           Money     `json:"amount"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
}

// InvoicePayment records money applied to an invoice. Scheduled installment
// payments are created pending (with a due date and line item link) and flip
// to paid exactly once; lump-sum payments are written already paid.
type InvoicePayment struct {
	ID         int        `json:"id"`
	InvoiceID  int        `json:"invoice_id"`
	LineItemID *int       `json:"line_item_id,omitempty"`
	Amount     Money      `json:"amount"`
	Method     string     `json:"method"`
	DueDate    *string    `json:"due_date,omitempty"`
	IsPaid     bool       `json:"paid"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DueDayInput configures an account's invoice due day.
type DueDayInput struct {
	DueDay int `json:"due_day"`
}

func (d *DueDayInput) Validate() string {
	if d.DueDay < 1 || d.DueDay > 28 {
		return "due_day must be between 1 and 28"
	}
	return ""
}

// RescheduleInput moves the due day of unpaid scheduled payments.
type RescheduleInput struct {
	DueDay int `json:"due_day"`
}

func (r *RescheduleInput) Validate() string {
	if r.DueDay < 1 || r.DueDay > 31 {
		return "due_day must be between 1 and 31"
	}
	return ""
}
