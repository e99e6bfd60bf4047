package models

import "time"

// Account holds a client's spendable balance and revolving credit state.
// Balance and limit are mutated exclusively through ledger operations.
type Account struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Balance        Money     `json:"balance"`
	CreditLimit    Money     `json:"credit_limit"`
	CreditApproved bool      `json:"credit_approved"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountInput is used for creating accounts.
type AccountInput struct {
	Name string `json:"name"`
}

func (a *AccountInput) Validate() string {
	if a.Name == "" {
		return "name is required"
	}
	return ""
}

// CreditLedgerOp classifies a limit-affecting event.
type CreditLedgerOp string

const (
	CreditOpUsage      CreditLedgerOp = "usage"
	CreditOpPayment    CreditLedgerOp = "payment"
	CreditOpAdjustment CreditLedgerOp = "adjustment"
)

// CreditLedgerEntry is an append-only record of a limit-affecting event,
// written in the same transaction as the mutation it records.
type CreditLedgerEntry struct {
	ID          int            `json:"id"`
	AccountID   int            `json:"account_id"`
	Op          CreditLedgerOp `json:"op"`
	Amount      Money          `json:"amount"`
	LimitBefore Money          `json:"limit_before"`
	LimitAfter  Money          `json:"limit_after"`
	Description string         `json:"description"`
	PurchaseID  *int           `json:"purchase_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
