package models

import "time"

// Transfer history kinds. The paired rows reference each other: the sender
// gets an "enviada" row, the receiver a "recebida" row, both sharing one
// reference id.
const (
	TransferSent     = "transferencia_enviada"
	TransferReceived = "transferencia_recebida"
)

// TransferEntry is one side of a completed peer transfer.
type TransferEntry struct {
	ID             int       `json:"id"`
	AccountID      int       `json:"account_id"`
	Kind           string    `json:"kind"`
	Amount         Money     `json:"amount"`
	Note           *string   `json:"note,omitempty"`
	CounterpartyID int       `json:"counterparty_id"`
	RelatedID      *int      `json:"related_id,omitempty"`
	Reference      string    `json:"reference"`
	CreatedAt      time.Time `json:"created_at"`
	// Computed fields
	CounterpartyName *string `json:"counterparty_name,omitempty"`
}

// TransferInput is used for initiating transfers.
type TransferInput struct {
	FromAccountID int     `json:"from_account_id"`
	ToAccountID   int     `json:"to_account_id"`
	Amount        string  `json:"amount"`
	Note          *string `json:"note"`
}

func (t *TransferInput) Validate() string {
	if t.FromAccountID <= 0 {
		return "from_account_id is required"
	}
	if t.ToAccountID <= 0 {
		return "to_account_id is required"
	}
	if t.Amount == "" {
		return "amount is required"
	}
	return ""
}
