package ledger

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/galaxybank/backoffice/models"
)

// Transfer moves amount between two accounts. The sender debit, receiver
// credit and both history rows commit as one unit; there is no partial
// application. The paired rows cross-reference each other and share one
// reference id.
func (e *Engine) Transfer(fromID, toID int, amount models.Money, note *string) (models.TransferEntry, error) {
	var sent models.TransferEntry
	err := e.withTx("transfer", func(tx *sql.Tx) error {
		if !amount.IsPositive() {
			return ErrInvalidAmount
		}
		if fromID == toID {
			return ErrSelfTransfer
		}

		sender, err := getAccountTx(tx, fromID)
		if err != nil {
			return fmt.Errorf("sender: %w", err)
		}
		receiver, err := getAccountTx(tx, toID)
		if err != nil {
			return fmt.Errorf("receiver: %w", err)
		}
		if amount.GreaterThan(sender.Balance) {
			return ErrInsufficientFunds
		}

		if err := setBalanceTx(tx, fromID, sender.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := setBalanceTx(tx, toID, receiver.Balance.Add(amount)); err != nil {
			return err
		}

		ref := uuid.NewString()
		res, err := tx.Exec(`INSERT INTO transfer_history (account_id, kind, amount, note, counterparty_id, reference)
			VALUES (?, ?, ?, ?, ?, ?)`,
			fromID, models.TransferSent, amount, note, toID, ref)
		if err != nil {
			return fmt.Errorf("recording sent transfer: %w", err)
		}
		sentID, _ := res.LastInsertId()

		res, err = tx.Exec(`INSERT INTO transfer_history (account_id, kind, amount, note, counterparty_id, related_id, reference)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			toID, models.TransferReceived, amount, note, fromID, sentID, ref)
		if err != nil {
			return fmt.Errorf("recording received transfer: %w", err)
		}
		receivedID, _ := res.LastInsertId()

		if _, err := tx.Exec(`UPDATE transfer_history SET related_id = ? WHERE id = ?`, receivedID, sentID); err != nil {
			return fmt.Errorf("linking transfer rows: %w", err)
		}

		sent, err = scanTransferEntry(tx.QueryRow(transferSelectQuery+" WHERE t.id = ?", sentID))
		return err
	})
	return sent, err
}

const transferSelectQuery = `SELECT t.id, t.account_id, t.kind, t.amount, t.note, t.counterparty_id,
	t.related_id, t.reference, t.created_at, c.name
	FROM transfer_history t
	LEFT JOIN accounts c ON t.counterparty_id = c.id`

func scanTransferEntry(scanner interface{ Scan(...any) error }) (models.TransferEntry, error) {
	var t models.TransferEntry
	err := scanner.Scan(&t.ID, &t.AccountID, &t.Kind, &t.Amount, &t.Note, &t.CounterpartyID,
		&t.RelatedID, &t.Reference, &t.CreatedAt, &t.CounterpartyName)
	return t, err
}

// TransferHistory lists an account's transfer rows, newest first.
func (e *Engine) TransferHistory(accountID int) ([]models.TransferEntry, error) {
	rows, err := e.db.Query(transferSelectQuery+" WHERE t.account_id = ? ORDER BY t.created_at DESC, t.id DESC", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TransferEntry
	for rows.Next() {
		t, err := scanTransferEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}
	return entries, rows.Err()
}
