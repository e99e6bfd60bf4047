package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/galaxybank/backoffice/models"
)

// Requested amounts are bounded regardless of income.
var (
	creditRequestMin = decimal.NewFromInt(100)
	creditRequestMax = decimal.NewFromInt(50000)
	incomeMultiple   = decimal.NewFromInt(5)
)

// SubmitCreditRequest files a new limit request for the account. At most one
// pending request may exist per account; a partial unique index backs the
// same invariant at the schema level.
func (e *Engine) SubmitCreditRequest(accountID int, requested, income models.Money, occupation, justification string) (models.CreditRequest, error) {
	var req models.CreditRequest
	err := e.withTx("submit_credit_request", func(tx *sql.Tx) error {
		if requested.LessThan(creditRequestMin) || requested.GreaterThan(creditRequestMax) {
			return fmt.Errorf("requested amount must be between 100 and 50000: %w", ErrInvalidAmount)
		}
		if !income.IsPositive() {
			return fmt.Errorf("monthly income must be positive: %w", ErrInvalidAmount)
		}
		if requested.GreaterThan(income.Mul(incomeMultiple)) {
			return ErrExceedsIncomeMultiple
		}
		if _, err := getAccountTx(tx, accountID); err != nil {
			return err
		}

		var pending int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM credit_requests WHERE account_id = ? AND status = 'pending'`,
			accountID).Scan(&pending); err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicatePendingRequest
		}

		res, err := tx.Exec(`INSERT INTO credit_requests (account_id, requested_amount, monthly_income, occupation, justification)
			VALUES (?, ?, ?, ?, ?)`,
			accountID, requested, income, occupation, justification)
		if err != nil {
			return fmt.Errorf("creating credit request: %w", err)
		}
		id, _ := res.LastInsertId()
		req, err = scanCreditRequest(tx.QueryRow(creditRequestSelectQuery+" WHERE r.id = ?", id))
		return err
	})
	return req, err
}

// ApproveCreditRequest grants the request, sets the account's limit and
// appends the adjustment ledger entry, all in one transaction. rawAmount is
// the evaluator-supplied override: empty or "0" falls back to the requested
// amount, anything unparsable or non-positive fails with
// ErrInvalidApprovalAmount and leaves the request pending.
func (e *Engine) ApproveCreditRequest(requestID int, evaluator, rawAmount, notes string) (models.CreditRequest, error) {
	var req models.CreditRequest
	err := e.withTx("approve_credit_request", func(tx *sql.Tx) error {
		var err error
		req, err = scanCreditRequest(tx.QueryRow(creditRequestSelectQuery+" WHERE r.id = ?", requestID))
		if err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("request is %s: %w", req.Status, ErrInvalidState)
		}

		amount := req.RequestedAmount
		if rawAmount != "" && rawAmount != "0" {
			amount, err = models.ParseMoney(rawAmount)
			if err != nil {
				return fmt.Errorf("%v: %w", err, ErrInvalidApprovalAmount)
			}
		}
		if !amount.IsPositive() {
			return ErrInvalidApprovalAmount
		}

		if _, err := tx.Exec(`UPDATE credit_requests SET status = 'approved', evaluator = ?, evaluator_notes = ?,
			evaluated_at = CURRENT_TIMESTAMP, approved_amount = ? WHERE id = ?`,
			evaluator, notes, amount, requestID); err != nil {
			return fmt.Errorf("approving request: %w", err)
		}

		desc := fmt.Sprintf("credit limit approved by %s", evaluator)
		if err := setCreditLimitTx(tx, req.AccountID, amount, true, desc); err != nil {
			return err
		}

		req, err = scanCreditRequest(tx.QueryRow(creditRequestSelectQuery+" WHERE r.id = ?", requestID))
		return err
	})
	return req, err
}

// RejectCreditRequest declines a pending request. No ledger mutation.
func (e *Engine) RejectCreditRequest(requestID int, evaluator, notes string) (models.CreditRequest, error) {
	return e.finishCreditRequest("reject_credit_request", requestID, models.RequestRejected, evaluator, notes)
}

// CancelCreditRequest withdraws a pending request on the client's behalf.
func (e *Engine) CancelCreditRequest(requestID int) (models.CreditRequest, error) {
	return e.finishCreditRequest("cancel_credit_request", requestID, models.RequestCancelled, "", "")
}

func (e *Engine) finishCreditRequest(op string, requestID int, status models.CreditRequestStatus, evaluator, notes string) (models.CreditRequest, error) {
	var req models.CreditRequest
	err := e.withTx(op, func(tx *sql.Tx) error {
		var err error
		req, err = scanCreditRequest(tx.QueryRow(creditRequestSelectQuery+" WHERE r.id = ?", requestID))
		if err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("request is %s: %w", req.Status, ErrInvalidState)
		}

		var eval *string
		if evaluator != "" {
			eval = &evaluator
		}
		if _, err := tx.Exec(`UPDATE credit_requests SET status = ?, evaluator = ?, evaluator_notes = ?,
			evaluated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, eval, notes, requestID); err != nil {
			return fmt.Errorf("updating request: %w", err)
		}

		req, err = scanCreditRequest(tx.QueryRow(creditRequestSelectQuery+" WHERE r.id = ?", requestID))
		return err
	})
	return req, err
}

const creditRequestSelectQuery = `SELECT r.id, r.account_id, r.requested_amount, r.monthly_income, r.occupation,
	r.justification, r.status, r.evaluator, r.evaluator_notes, r.evaluated_at, r.approved_amount, r.created_at,
	a.name
	FROM credit_requests r
	LEFT JOIN accounts a ON r.account_id = a.id`

func scanCreditRequest(scanner interface{ Scan(...any) error }) (models.CreditRequest, error) {
	var r models.CreditRequest
	// NULLable decimals go through NullString; a nullable pointer to a
	// Scanner type does not round-trip through database/sql.
	var approved sql.NullString
	err := scanner.Scan(&r.ID, &r.AccountID, &r.RequestedAmount, &r.MonthlyIncome, &r.Occupation,
		&r.Justification, &r.Status, &r.Evaluator, &r.EvaluatorNotes, &r.EvaluatedAt, &approved,
		&r.CreatedAt, &r.AccountName)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("credit request: %w", ErrNotFound)
	}
	if err == nil && approved.Valid {
		amount, perr := models.ParseMoney(approved.String)
		if perr != nil {
			return r, perr
		}
		r.ApprovedAmount = &amount
	}
	return r, err
}

// GetCreditRequest loads a request by id.
func (e *Engine) GetCreditRequest(id int) (models.CreditRequest, error) {
	return scanCreditRequest(e.db.QueryRow(creditRequestSelectQuery+" WHERE r.id = ?", id))
}

// ListCreditRequests returns requests, optionally filtered by status or
// account, newest first.
func (e *Engine) ListCreditRequests(accountID int, status string) ([]models.CreditRequest, error) {
	query := creditRequestSelectQuery
	var conditions []string
	var args []any
	if accountID > 0 {
		conditions = append(conditions, "r.account_id = ?")
		args = append(args, accountID)
	}
	if status != "" {
		conditions = append(conditions, "r.status = ?")
		args = append(args, status)
	}
	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	rows, err := e.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []models.CreditRequest
	for rows.Next() {
		r, err := scanCreditRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}
