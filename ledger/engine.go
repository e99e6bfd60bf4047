// Package ledger implements the money-moving engine: account balance and
// credit-limit primitives, peer transfers, the credit decision workflow,
// purchase settlement and the monthly invoice engine. Every operation runs
// as one SQLite transaction; validation reads and the writes that follow
// them never cross a transaction boundary.
package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/galaxybank/backoffice/metrics"
	"github.com/galaxybank/backoffice/models"
)

// Engine executes ledger and billing operations against the database.
// Safe for concurrent use; SQLite's immediate write lock serializes
// transactions that touch the same rows.
type Engine struct {
	db *sql.DB

	// now is injectable for time-dependent interest tests.
	now func() time.Time

	// signupGrant is credited to every new account.
	signupGrant models.Money
	// dueDayDefault applies when an account has no due-day setting.
	dueDayDefault int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSignupGrant sets the balance granted to new accounts.
func WithSignupGrant(grant models.Money) Option {
	return func(e *Engine) { e.signupGrant = grant }
}

// WithDueDayDefault sets the fallback invoice due day.
func WithDueDayDefault(day int) Option {
	return func(e *Engine) { e.dueDayDefault = day }
}

// New returns an Engine with production defaults: real clock, 1000.00
// signup grant, due day 10.
func New(db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:            db,
		now:           time.Now,
		signupGrant:   decimal.RequireFromString("1000.00"),
		dueDayDefault: 10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// withTx runs fn inside a transaction, rolling back on any error so that an
// aborted operation leaves no partial writes behind. The op name feeds the
// operation metrics.
func (e *Engine) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.Begin()
	if err != nil {
		metrics.ObserveOp(op, err)
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		metrics.ObserveOp(op, err)
		return err
	}
	if err := tx.Commit(); err != nil {
		metrics.ObserveOp(op, err)
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	metrics.ObserveOp(op, nil)
	slog.Debug("ledger operation committed", "op", op)
	return nil
}

// today returns the engine clock's date, truncated to midnight UTC.
func (e *Engine) today() time.Time {
	y, m, d := e.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const dateLayout = "2006-01-02"

// clampDay returns the given day clamped to the length of year/month,
// e.g. day 31 in February becomes the last day of February.
func clampDay(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// firstOfMonth normalizes t to the first day of its month.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// addMonths advances a first-of-month date by n whole months.
func addMonths(month time.Time, n int) time.Time {
	return time.Date(month.Year(), month.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}
