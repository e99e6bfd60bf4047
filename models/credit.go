package models

import "time"

// CreditRequestStatus is the closed set of credit request states.
type CreditRequestStatus string

const (
	RequestPending   CreditRequestStatus = "pending"
	RequestApproved  CreditRequestStatus = "approved"
	RequestRejected  CreditRequestStatus = "rejected"
	RequestCancelled CreditRequestStatus = "cancelled"
)

// Terminal reports whether no further transition is defined out of s.
func (s CreditRequestStatus) Terminal() bool {
	return s != RequestPending
}

// CreditRequest is a client's application for a revolving credit limit.
// A client may have at most one pending request at any time; once evaluated
// the request is never re-opened.
type CreditRequest struct {
	ID              int                 `json:"id"`
	AccountID       int                 `json:"account_id"`
	RequestedAmount Money               `json:"requested_amount"`
	MonthlyIncome   Money               `json:"monthly_income"`
	Occupation      string              `json:"occupation"`
	Justification   string              `json:"justification"`
	Status          CreditRequestStatus `json:"status"`
	Evaluator       *string             `json:"evaluator,omitempty"`
	EvaluatorNotes  *string             `json:"evaluator_notes,omitempty"`
	EvaluatedAt     *time.Time          `json:"evaluated_at,omitempty"`
	ApprovedAmount  *Money              `json:"approved_amount,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	// Computed fields
	AccountName *string `json:"account_name,omitempty"`
}

// CreditRequestInput is used for submitting credit requests. Amounts arrive
// as strings so that both decimal separators are accepted.
type CreditRequestInput struct {
	AccountID       int    `json:"account_id"`
	RequestedAmount string `json:"requested_amount"`
	MonthlyIncome   string `json:"monthly_income"`
	Occupation      string `json:"occupation"`
	Justification   string `json:"justification"`
}

func (c *CreditRequestInput) Validate() string {
	if c.AccountID <= 0 {
		return "account_id is required"
	}
	if c.RequestedAmount == "" {
		return "requested_amount is required"
	}
	if c.MonthlyIncome == "" {
		return "monthly_income is required"
	}
	if c.Justification == "" {
		return "justification is required"
	}
	return ""
}

// CreditDecisionInput is used by an evaluator to approve or reject a request.
// ApprovedAmount is optional on approval; empty or "0" falls back to the
// requested amount.
type CreditDecisionInput struct {
	Evaluator      string `json:"evaluator"`
	ApprovedAmount string `json:"approved_amount"`
	Notes          string `json:"notes"`
}

func (c *CreditDecisionInput) Validate() string {
	if c.Evaluator == "" {
		return "evaluator is required"
	}
	return ""
}
