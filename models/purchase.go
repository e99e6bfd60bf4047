package models

import "time"

// PaymentMethod selects which account field a purchase settles against.
type PaymentMethod string

const (
	PayBalance PaymentMethod = "saldo"
	PayCredit  PaymentMethod = "credito"
)

// PurchaseStatus covers the post-settlement lifecycle. Only status moves
// after checkout; the purchase and its items are otherwise immutable.
type PurchaseStatus string

const (
	PurchaseApproved  PurchaseStatus = "approved"
	PurchaseDelivered PurchaseStatus = "delivered"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Purchase is a settled cart.
type Purchase struct {
	ID           int            `json:"id"`
	AccountID    int            `json:"account_id"`
	Total        Money          `json:"total"`
	Method       PaymentMethod  `json:"method"`
	Installments int            `json:"installments"`
	Status       PurchaseStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	Items        []PurchaseItem `json:"items,omitempty"`
}

// PurchaseItem is one product line of a purchase, priced at checkout time.
type PurchaseItem struct {
	ID         int   `json:"id"`
	PurchaseID int   `json:"purchase_id"`
	ProductID  int   `json:"product_id"`
	Quantity   int   `json:"quantity"`
	UnitPrice  Money `json:"unit_price"`
	Total      Money `json:"total"`
	// Computed fields
	Title *string `json:"title,omitempty"`
}

// CheckoutInput is used for settling the cart.
type CheckoutInput struct {
	AccountID    int           `json:"account_id"`
	Method       PaymentMethod `json:"method"`
	Installments int           `json:"installments"`
}

func (c *CheckoutInput) Validate() string {
	if c.AccountID <= 0 {
		return "account_id is required"
	}
	switch c.Method {
	case PayBalance, PayCredit:
	default:
		return "method must be one of: saldo, credito"
	}
	if c.Installments == 0 {
		c.Installments = 1
	}
	if c.Installments < 1 {
		return "installments must be at least 1"
	}
	if c.Method == PayBalance && c.Installments > 1 {
		return "installments require credito payment"
	}
	return ""
}
