package ledger

import "errors"

// Recoverable engine failures. Every one of these leaves the touched
// entities exactly as they were before the call; handlers translate them to
// HTTP statuses with errors.Is.
var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInsufficientCreditLimit = errors.New("insufficient credit limit")
	ErrCreditNotApproved       = errors.New("credit limit not approved")
	ErrSelfTransfer            = errors.New("cannot transfer to the same account")
	ErrDuplicatePendingRequest = errors.New("a pending credit request already exists")
	ErrExceedsIncomeMultiple   = errors.New("requested amount exceeds 5x monthly income")
	ErrInvalidApprovalAmount   = errors.New("invalid approval amount")
	ErrInvalidState            = errors.New("operation not allowed in current state")
	ErrNotFound                = errors.New("not found")
)
