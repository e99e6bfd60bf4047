package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/galaxybank/backoffice/models"
)

// Late-payment interest: 2% flat plus 0.5% per day late, capped at 20%,
// applied to the unpaid principal and overwritten on every evaluation.
var (
	interestBase    = decimal.RequireFromString("0.02")
	interestPerDay  = decimal.RequireFromString("0.005")
	interestCeiling = decimal.RequireFromString("0.20")
)

// GetOrCreateMonthlyInvoice returns the account's invoice for the month
// containing refMonth, creating it when absent. The due date falls on the
// account's due day in the following month, clamped to that month's length.
func (e *Engine) GetOrCreateMonthlyInvoice(accountID int, refMonth time.Time) (models.Invoice, error) {
	var inv models.Invoice
	err := e.withTx("get_or_create_invoice", func(tx *sql.Tx) error {
		var err error
		inv, err = e.getOrCreateInvoiceTx(tx, accountID, refMonth)
		return err
	})
	return inv, err
}

func (e *Engine) getOrCreateInvoiceTx(tx *sql.Tx, accountID int, refMonth time.Time) (models.Invoice, error) {
	month := firstOfMonth(refMonth)
	monthStr := month.Format(dateLayout)

	inv, err := scanInvoice(tx.QueryRow(invoiceSelectQuery+" WHERE account_id = ? AND reference_month = ?",
		accountID, monthStr))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return inv, err
	}

	if _, err := getAccountTx(tx, accountID); err != nil {
		return inv, err
	}

	dueDay := e.dueDayDefault
	var configured int
	switch err := tx.QueryRow(`SELECT due_day FROM invoice_settings WHERE account_id = ?`, accountID).Scan(&configured); {
	case err == nil:
		dueDay = configured
	case errors.Is(err, sql.ErrNoRows):
	default:
		return inv, err
	}

	next := addMonths(month, 1)
	due := clampDay(next.Year(), next.Month(), dueDay)

	res, err := tx.Exec(`INSERT INTO invoices (account_id, reference_month, due_date) VALUES (?, ?, ?)`,
		accountID, monthStr, due.Format(dateLayout))
	if err != nil {
		return inv, fmt.Errorf("creating invoice: %w", err)
	}
	id, _ := res.LastInsertId()
	return scanInvoice(tx.QueryRow(invoiceSelectQuery+" WHERE id = ?", id))
}

// addInstallmentTx appends a line item, schedules its pending payment and
// bumps the invoice total, all inside the caller's transaction.
func addInstallmentTx(tx *sql.Tx, inv models.Invoice, purchaseID, no, total int, value models.Money, description string) error {
	res, err := tx.Exec(`INSERT INTO invoice_items (invoice_id, purchase_id, installment_no, installment_total, amount, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, purchaseID, no, total, value, description)
	if err != nil {
		return fmt.Errorf("creating invoice item: %w", err)
	}
	itemID, _ := res.LastInsertId()

	if _, err := tx.Exec(`INSERT INTO invoice_payments (invoice_id, line_item_id, amount, due_date) VALUES (?, ?, ?, ?)`,
		inv.ID, itemID, value, inv.DueDate); err != nil {
		return fmt.Errorf("scheduling installment payment: %w", err)
	}

	newTotal := inv.Total.Add(value)
	if _, err := tx.Exec(`UPDATE invoices SET total = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newTotal, inv.ID); err != nil {
		return fmt.Errorf("updating invoice total: %w", err)
	}
	return nil
}

// CloseInvoice ends the invoice's accumulation month: open -> closed.
func (e *Engine) CloseInvoice(invoiceID int) (models.Invoice, error) {
	var inv models.Invoice
	err := e.withTx("close_invoice", func(tx *sql.Tx) error {
		var err error
		inv, err = getInvoiceTx(tx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != models.InvoiceOpen {
			return fmt.Errorf("invoice is %s: %w", inv.Status, ErrInvalidState)
		}
		if _, err := tx.Exec(`UPDATE invoices SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			models.InvoiceClosed, invoiceID); err != nil {
			return err
		}
		inv, err = getInvoiceTx(tx, invoiceID)
		return err
	})
	return inv, err
}

// AccrueLateInterest evaluates late-payment interest for the invoice. It is
// a no-op unless the invoice is closed or already overdue, past due and
// carrying an unpaid amount. The accrued value is recomputed from the
// unpaid principal and overwritten, never compounded, so repeated
// evaluation on the same day is idempotent. The first accrual flips
// closed -> overdue.
func (e *Engine) AccrueLateInterest(invoiceID int) (models.Invoice, error) {
	var inv models.Invoice
	err := e.withTx("accrue_late_interest", func(tx *sql.Tx) error {
		var err error
		inv, err = e.accrueLateInterestTx(tx, invoiceID)
		return err
	})
	return inv, err
}

func (e *Engine) accrueLateInterestTx(tx *sql.Tx, invoiceID int) (models.Invoice, error) {
	inv, err := getInvoiceTx(tx, invoiceID)
	if err != nil {
		return inv, err
	}
	if inv.Status != models.InvoiceClosed && inv.Status != models.InvoiceOverdue {
		return inv, nil
	}

	due, err := parseDate(inv.DueDate)
	if err != nil {
		return inv, fmt.Errorf("invoice %d due date: %w", inv.ID, err)
	}
	today := e.today()
	if !today.After(due) {
		return inv, nil
	}

	principal := inv.Total.Sub(inv.Paid)
	if !principal.IsPositive() {
		return inv, nil
	}

	daysLate := int(today.Sub(due).Hours() / 24)
	rate := interestBase.Add(interestPerDay.Mul(decimal.NewFromInt(int64(daysLate))))
	if rate.GreaterThan(interestCeiling) {
		rate = interestCeiling
	}
	interest := principal.Mul(rate).Round(models.MoneyPlaces)

	if _, err := tx.Exec(`UPDATE invoices SET late_interest = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		interest, models.InvoiceOverdue, inv.ID); err != nil {
		return inv, fmt.Errorf("accruing interest: %w", err)
	}
	return getInvoiceTx(tx, inv.ID)
}

// PayFull settles the whole remaining invoice amount from the client's
// balance: interest is re-evaluated first, the balance debited, the payment
// recorded, every scheduled unpaid installment flipped to paid and — for
// line items financed on credit — the installment value restored to the
// account's limit exactly once.
func (e *Engine) PayFull(invoiceID int) (models.Invoice, error) {
	var inv models.Invoice
	err := e.withTx("pay_invoice", func(tx *sql.Tx) error {
		var err error
		inv, err = getInvoiceTx(tx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == models.InvoicePaid || inv.Status == models.InvoiceCancelled {
			return fmt.Errorf("invoice is %s: %w", inv.Status, ErrInvalidState)
		}

		inv, err = e.accrueLateInterestTx(tx, invoiceID)
		if err != nil {
			return err
		}

		due := inv.Remaining()
		if !due.IsPositive() {
			return fmt.Errorf("nothing to pay: %w", ErrInvalidState)
		}
		if err := debitBalanceTx(tx, inv.AccountID, due); err != nil {
			return err
		}

		now := e.now().UTC()
		if _, err := tx.Exec(`INSERT INTO invoice_payments (invoice_id, amount, method, paid, paid_at, notes)
			VALUES (?, ?, 'saldo', 1, ?, 'full payment from balance')`,
			invoiceID, due, now); err != nil {
			return fmt.Errorf("recording payment: %w", err)
		}

		if _, err := tx.Exec(`UPDATE invoices SET paid = ?, status = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			inv.Paid.Add(due), models.InvoicePaid, now, invoiceID); err != nil {
			return fmt.Errorf("updating invoice: %w", err)
		}

		if err := e.settleScheduledPaymentsTx(tx, inv, now); err != nil {
			return err
		}

		inv, err = getInvoiceTx(tx, invoiceID)
		return err
	})
	return inv, err
}

// settleScheduledPaymentsTx marks every unpaid scheduled installment payment
// as paid and restores the credit limit for the ones whose purchase was
// financed on credit. The paid flag is what makes restoration single-shot:
// a payment already flipped is never restored again.
func (e *Engine) settleScheduledPaymentsTx(tx *sql.Tx, inv models.Invoice, now time.Time) error {
	rows, err := tx.Query(`SELECT p.id, p.amount, i.purchase_id, pu.method
		FROM invoice_payments p
		JOIN invoice_items i ON p.line_item_id = i.id
		JOIN purchases pu ON i.purchase_id = pu.id
		WHERE p.invoice_id = ? AND p.paid = 0`, inv.ID)
	if err != nil {
		return err
	}

	type settled struct {
		paymentID  int
		amount     models.Money
		purchaseID int
		method     models.PaymentMethod
	}
	var pending []settled
	for rows.Next() {
		var s settled
		if err := rows.Scan(&s.paymentID, &s.amount, &s.purchaseID, &s.method); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, s := range pending {
		if _, err := tx.Exec(`UPDATE invoice_payments SET paid = 1, paid_at = ? WHERE id = ?`,
			now, s.paymentID); err != nil {
			return fmt.Errorf("settling scheduled payment: %w", err)
		}
		if s.method == models.PayCredit {
			desc := fmt.Sprintf("installment paid, invoice #%d", inv.ID)
			purchaseID := s.purchaseID
			if err := restoreCreditLimitTx(tx, inv.AccountID, s.amount, desc, &purchaseID); err != nil {
				return err
			}
		}
	}
	return nil
}

// PayInstallment settles a single scheduled payment from the client's
// balance. The parent invoice's paid total advances and the invoice flips
// to paid once nothing remains.
func (e *Engine) PayInstallment(paymentID int) (models.InvoicePayment, error) {
	var payment models.InvoicePayment
	err := e.withTx("pay_installment", func(tx *sql.Tx) error {
		var err error
		payment, err = getInvoicePaymentTx(tx, paymentID)
		if err != nil {
			return err
		}
		if payment.IsPaid {
			return fmt.Errorf("payment already settled: %w", ErrInvalidState)
		}

		inv, err := getInvoiceTx(tx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == models.InvoicePaid || inv.Status == models.InvoiceCancelled {
			return fmt.Errorf("invoice is %s: %w", inv.Status, ErrInvalidState)
		}

		if err := debitBalanceTx(tx, inv.AccountID, payment.Amount); err != nil {
			return err
		}

		now := e.now().UTC()
		if _, err := tx.Exec(`UPDATE invoice_payments SET paid = 1, paid_at = ?, method = 'saldo' WHERE id = ?`,
			now, paymentID); err != nil {
			return fmt.Errorf("settling payment: %w", err)
		}

		newPaid := inv.Paid.Add(payment.Amount)
		if _, err := tx.Exec(`UPDATE invoices SET paid = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			newPaid, inv.ID); err != nil {
			return fmt.Errorf("updating invoice: %w", err)
		}

		// Restore limit for this installment when the purchase was
		// financed on credit.
		if payment.LineItemID != nil {
			var purchaseID int
			var method models.PaymentMethod
			if err := tx.QueryRow(`SELECT i.purchase_id, p.method FROM invoice_items i
				JOIN purchases p ON i.purchase_id = p.id WHERE i.id = ?`,
				*payment.LineItemID).Scan(&purchaseID, &method); err != nil {
				return err
			}
			if method == models.PayCredit {
				desc := fmt.Sprintf("installment paid, invoice #%d", inv.ID)
				if err := restoreCreditLimitTx(tx, inv.AccountID, payment.Amount, desc, &purchaseID); err != nil {
					return err
				}
			}
		}

		remaining := inv.Total.Add(inv.LateInterest).Sub(newPaid)
		if !remaining.IsPositive() {
			if _, err := tx.Exec(`UPDATE invoices SET status = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				models.InvoicePaid, now, inv.ID); err != nil {
				return fmt.Errorf("closing out invoice: %w", err)
			}
		}

		payment, err = getInvoicePaymentTx(tx, paymentID)
		return err
	})
	return payment, err
}

// RescheduleDueDates moves every unpaid, future-dated scheduled payment of
// the invoice to the new due day, preserving month and year and clamping
// the day to the month's length (31 in February becomes the 28th/29th).
func (e *Engine) RescheduleDueDates(invoiceID, newDueDay int) error {
	return e.withTx("reschedule_due_dates", func(tx *sql.Tx) error {
		if newDueDay < 1 || newDueDay > 31 {
			return fmt.Errorf("due day %d out of range: %w", newDueDay, ErrInvalidAmount)
		}
		if _, err := getInvoiceTx(tx, invoiceID); err != nil {
			return err
		}

		rows, err := tx.Query(`SELECT id, due_date FROM invoice_payments
			WHERE invoice_id = ? AND paid = 0 AND due_date IS NOT NULL`, invoiceID)
		if err != nil {
			return err
		}

		type sched struct {
			id  int
			due time.Time
		}
		var future []sched
		today := e.today()
		for rows.Next() {
			var id int
			var raw string
			if err := rows.Scan(&id, &raw); err != nil {
				rows.Close()
				return err
			}
			due, err := parseDate(raw)
			if err != nil {
				rows.Close()
				return err
			}
			if due.After(today) {
				future = append(future, sched{id: id, due: due})
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, s := range future {
			moved := clampDay(s.due.Year(), s.due.Month(), newDueDay)
			if _, err := tx.Exec(`UPDATE invoice_payments SET due_date = ? WHERE id = ?`,
				moved.Format(dateLayout), s.id); err != nil {
				return fmt.Errorf("rescheduling payment %d: %w", s.id, err)
			}
		}
		return nil
	})
}

// SetDueDay stores the account's preferred invoice due day (1-28).
func (e *Engine) SetDueDay(accountID, day int) error {
	return e.withTx("set_due_day", func(tx *sql.Tx) error {
		if day < 1 || day > 28 {
			return fmt.Errorf("due day %d out of range: %w", day, ErrInvalidAmount)
		}
		if _, err := getAccountTx(tx, accountID); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO invoice_settings (account_id, due_day) VALUES (?, ?)
			ON CONFLICT(account_id) DO UPDATE SET due_day = excluded.due_day`, accountID, day)
		return err
	})
}

const invoiceSelectQuery = `SELECT id, account_id, reference_month, due_date, total, paid, late_interest,
	status, paid_at, created_at, updated_at FROM invoices`

func scanInvoice(scanner interface{ Scan(...any) error }) (models.Invoice, error) {
	var inv models.Invoice
	err := scanner.Scan(&inv.ID, &inv.AccountID, &inv.ReferenceMonth, &inv.DueDate, &inv.Total, &inv.Paid,
		&inv.LateInterest, &inv.Status, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return inv, fmt.Errorf("invoice: %w", ErrNotFound)
	}
	if err == nil {
		inv.ReferenceMonth = normalizeDate(inv.ReferenceMonth)
		inv.DueDate = normalizeDate(inv.DueDate)
		inv.AmountDue = inv.Remaining()
	}
	return inv, err
}

func getInvoiceTx(tx *sql.Tx, id int) (models.Invoice, error) {
	return scanInvoice(tx.QueryRow(invoiceSelectQuery+" WHERE id = ?", id))
}

// GetInvoice loads an invoice by id without touching its state.
func (e *Engine) GetInvoice(id int) (models.Invoice, error) {
	return scanInvoice(e.db.QueryRow(invoiceSelectQuery+" WHERE id = ?", id))
}

// ListInvoices returns an account's invoices, newest month first.
func (e *Engine) ListInvoices(accountID int) ([]models.Invoice, error) {
	rows, err := e.db.Query(invoiceSelectQuery+" WHERE account_id = ? ORDER BY reference_month DESC", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// InvoiceLineItems lists an invoice's line items in installment order.
func (e *Engine) InvoiceLineItems(invoiceID int) ([]models.InvoiceLineItem, error) {
	rows, err := e.db.Query(`SELECT id, invoice_id, purchase_id, installment_no, installment_total, amount, description, created_at
		FROM invoice_items WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.InvoiceLineItem
	for rows.Next() {
		var it models.InvoiceLineItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.PurchaseID, &it.InstallmentNo, &it.InstallmentTotal,
			&it.Amount, &it.Description, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// InvoicePayments lists an invoice's payment records, scheduled and applied.
func (e *Engine) InvoicePayments(invoiceID int) ([]models.InvoicePayment, error) {
	rows, err := e.db.Query(invoicePaymentSelectQuery+` WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.InvoicePayment
	for rows.Next() {
		p, err := scanInvoicePayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

const invoicePaymentSelectQuery = `SELECT id, invoice_id, line_item_id, amount, method, due_date, paid, paid_at, notes, created_at
	FROM invoice_payments`

func scanInvoicePayment(scanner interface{ Scan(...any) error }) (models.InvoicePayment, error) {
	var p models.InvoicePayment
	err := scanner.Scan(&p.ID, &p.InvoiceID, &p.LineItemID, &p.Amount, &p.Method, &p.DueDate,
		&p.IsPaid, &p.PaidAt, &p.Notes, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("invoice payment: %w", ErrNotFound)
	}
	if err == nil && p.DueDate != nil {
		d := normalizeDate(*p.DueDate)
		p.DueDate = &d
	}
	return p, err
}

func getInvoicePaymentTx(tx *sql.Tx, id int) (models.InvoicePayment, error) {
	return scanInvoicePayment(tx.QueryRow(invoicePaymentSelectQuery+" WHERE id = ?", id))
}

// parseDate accepts both the plain date layout and RFC3339 strings the
// driver may hand back for DATE columns.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func normalizeDate(s string) string {
	if t, err := parseDate(s); err == nil {
		return t.Format(dateLayout)
	}
	return s
}
