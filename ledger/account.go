package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/galaxybank/backoffice/models"
)

// CreateAccount opens a new account credited with the signup grant.
func (e *Engine) CreateAccount(name string) (models.Account, error) {
	var acc models.Account
	err := e.withTx("create_account", func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO accounts (name, balance) VALUES (?, ?)`,
			name, e.signupGrant)
		if err != nil {
			return fmt.Errorf("creating account: %w", err)
		}
		id, _ := res.LastInsertId()
		acc, err = getAccountTx(tx, int(id))
		return err
	})
	return acc, err
}

// GetAccount loads an account by id.
func (e *Engine) GetAccount(id int) (models.Account, error) {
	return scanAccount(e.db.QueryRow(accountSelectQuery+" WHERE id = ?", id))
}

const accountSelectQuery = `SELECT id, name, balance, credit_limit, credit_approved, created_at, updated_at
	FROM accounts`

func scanAccount(scanner interface{ Scan(...any) error }) (models.Account, error) {
	var a models.Account
	err := scanner.Scan(&a.ID, &a.Name, &a.Balance, &a.CreditLimit, &a.CreditApproved, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("account: %w", ErrNotFound)
	}
	return a, err
}

// getAccountTx reads the account row inside the caller's transaction, so the
// balance and limit used for validation cannot be stale relative to the
// write that follows.
func getAccountTx(tx *sql.Tx, id int) (models.Account, error) {
	return scanAccount(tx.QueryRow(accountSelectQuery+" WHERE id = ?", id))
}

// DebitBalance removes amount from the account's spendable balance.
func (e *Engine) DebitBalance(accountID int, amount models.Money) error {
	return e.withTx("debit_balance", func(tx *sql.Tx) error {
		return debitBalanceTx(tx, accountID, amount)
	})
}

func debitBalanceTx(tx *sql.Tx, accountID int, amount models.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	acc, err := getAccountTx(tx, accountID)
	if err != nil {
		return err
	}
	if amount.GreaterThan(acc.Balance) {
		return ErrInsufficientFunds
	}
	return setBalanceTx(tx, accountID, acc.Balance.Sub(amount))
}

// CreditBalance adds amount to the account's spendable balance.
func (e *Engine) CreditBalance(accountID int, amount models.Money) error {
	return e.withTx("credit_balance", func(tx *sql.Tx) error {
		return creditBalanceTx(tx, accountID, amount)
	})
}

func creditBalanceTx(tx *sql.Tx, accountID int, amount models.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	acc, err := getAccountTx(tx, accountID)
	if err != nil {
		return err
	}
	return setBalanceTx(tx, accountID, acc.Balance.Add(amount))
}

func setBalanceTx(tx *sql.Tx, accountID int, balance models.Money) error {
	_, err := tx.Exec(`UPDATE accounts SET balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		balance, accountID)
	if err != nil {
		return fmt.Errorf("updating balance: %w", err)
	}
	return nil
}

// SetCreditLimit replaces the account's limit and approval flag and appends
// the matching adjustment ledger entry in the same transaction.
func (e *Engine) SetCreditLimit(accountID int, amount models.Money, approved bool, description string) error {
	return e.withTx("set_credit_limit", func(tx *sql.Tx) error {
		return setCreditLimitTx(tx, accountID, amount, approved, description)
	})
}

func setCreditLimitTx(tx *sql.Tx, accountID int, amount models.Money, approved bool, description string) error {
	acc, err := getAccountTx(tx, accountID)
	if err != nil {
		return err
	}
	// The pre-update limit only counts as a prior balance if it had been
	// approved; an unapproved limit was never spendable.
	before := decimal.Zero
	if acc.CreditApproved {
		before = acc.CreditLimit
	}
	_, err = tx.Exec(`UPDATE accounts SET credit_limit = ?, credit_approved = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		amount, approved, accountID)
	if err != nil {
		return fmt.Errorf("updating credit limit: %w", err)
	}
	return appendCreditLedgerTx(tx, accountID, models.CreditOpAdjustment, amount, before, amount, description, nil)
}

// debitCreditLimitTx consumes part of the approved limit; used by purchase
// settlement.
func debitCreditLimitTx(tx *sql.Tx, accountID int, amount models.Money, description string, purchaseID *int) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	acc, err := getAccountTx(tx, accountID)
	if err != nil {
		return err
	}
	if !acc.CreditApproved {
		return ErrCreditNotApproved
	}
	if amount.GreaterThan(acc.CreditLimit) {
		return ErrInsufficientCreditLimit
	}
	after := acc.CreditLimit.Sub(amount)
	if _, err := tx.Exec(`UPDATE accounts SET credit_limit = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		after, accountID); err != nil {
		return fmt.Errorf("debiting credit limit: %w", err)
	}
	return appendCreditLedgerTx(tx, accountID, models.CreditOpUsage, amount, acc.CreditLimit, after, description, purchaseID)
}

// restoreCreditLimitTx gives back limit consumed by a credit purchase; the
// invoice engine invokes it exactly once per paid installment.
func restoreCreditLimitTx(tx *sql.Tx, accountID int, amount models.Money, description string, purchaseID *int) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	acc, err := getAccountTx(tx, accountID)
	if err != nil {
		return err
	}
	after := acc.CreditLimit.Add(amount)
	if _, err := tx.Exec(`UPDATE accounts SET credit_limit = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		after, accountID); err != nil {
		return fmt.Errorf("restoring credit limit: %w", err)
	}
	return appendCreditLedgerTx(tx, accountID, models.CreditOpPayment, amount, acc.CreditLimit, after, description, purchaseID)
}

func appendCreditLedgerTx(tx *sql.Tx, accountID int, op models.CreditLedgerOp, amount, before, after models.Money, description string, purchaseID *int) error {
	_, err := tx.Exec(`INSERT INTO credit_ledger (account_id, op, amount, limit_before, limit_after, description, purchase_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, op, amount, before, after, description, purchaseID)
	if err != nil {
		return fmt.Errorf("appending credit ledger entry: %w", err)
	}
	return nil
}

// CreditHistory returns the account's limit-affecting events, newest first.
func (e *Engine) CreditHistory(accountID int) ([]models.CreditLedgerEntry, error) {
	rows, err := e.db.Query(`SELECT id, account_id, op, amount, limit_before, limit_after, description, purchase_id, created_at
		FROM credit_ledger WHERE account_id = ? ORDER BY created_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.CreditLedgerEntry
	for rows.Next() {
		var en models.CreditLedgerEntry
		if err := rows.Scan(&en.ID, &en.AccountID, &en.Op, &en.Amount, &en.LimitBefore, &en.LimitAfter,
			&en.Description, &en.PurchaseID, &en.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, en)
	}
	return entries, rows.Err()
}
