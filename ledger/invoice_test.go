package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxybank/backoffice/models"
)

func TestMonthlyInvoiceIsUniquePerMonth(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, _ := newTestEngine(t, clock)
	acc, _ := e.CreateAccount("Alice")

	first, err := e.GetOrCreateMonthlyInvoice(acc.ID, clock.Now())
	require.NoError(t, err)
	again, err := e.GetOrCreateMonthlyInvoice(acc.ID, clock.Now().AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	assert.Equal(t, "2025-03-01", first.ReferenceMonth)
	assert.Equal(t, "2025-04-10", first.DueDate)
	assert.Equal(t, models.InvoiceOpen, first.Status)
}

func TestSetDueDayShiftsNewInvoices(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, _ := newTestEngine(t, clock)
	acc, _ := e.CreateAccount("Alice")

	require.NoError(t, e.SetDueDay(acc.ID, 5))

	inv, err := e.GetOrCreateMonthlyInvoice(acc.ID, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, "2025-04-05", inv.DueDate)
}

func TestSetDueDayOutOfRange(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")

	assert.ErrorIs(t, e.SetDueDay(acc.ID, 0), ErrInvalidAmount)
	assert.ErrorIs(t, e.SetDueDay(acc.ID, 29), ErrInvalidAmount)
}

func TestCloseInvoice(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, _ := newTestEngine(t, clock)
	acc, _ := e.CreateAccount("Alice")

	inv, err := e.GetOrCreateMonthlyInvoice(acc.ID, clock.Now())
	require.NoError(t, err)

	closed, err := e.CloseInvoice(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceClosed, closed.Status)

	_, err = e.CloseInvoice(inv.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

// invoiceFixture settles a 2000.00 credit purchase in two installments and
// returns the current-month invoice (total 1000.00, due next month on the 10th).
func invoiceFixture(t *testing.T, clock *testClock) (*Engine, int, models.Invoice) {
	t.Helper()
	e, database := newTestEngine(t, clock)
	acc, err := e.CreateAccount("Alice")
	require.NoError(t, err)
	require.NoError(t, e.SetCreditLimit(acc.ID, models.MustMoney("2000.00"), true, ""))

	pid := seedProduct(t, database, "TV", "1800.00", "2000.00")
	addToCart(t, database, acc.ID, pid, 1)
	_, err = e.Checkout(acc.ID, models.PayCredit, 2)
	require.NoError(t, err)

	invoices, err := e.ListInvoices(acc.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	current := invoices[1] // oldest month
	require.True(t, current.Total.Equal(models.MustMoney("1000.00")))
	return e, acc.ID, current
}

func TestAccrueLateInterest(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, _, inv := invoiceFixture(t, clock)

	_, err := e.CloseInvoice(inv.ID)
	require.NoError(t, err)

	// 10 days past the April 10 due date: 2% + 0.5% x 10 = 7% of 1000.
	clock.Set(time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC))
	got, err := e.AccrueLateInterest(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, got.Status)
	assert.True(t, got.LateInterest.Equal(models.MustMoney("70.00")), "interest %s", got.LateInterest)
	assert.True(t, got.AmountDue.Equal(models.MustMoney("1070.00")))
}

func TestAccrueLateInterestIdempotentAndCapped(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, _, inv := invoiceFixture(t, clock)
	_, err := e.CloseInvoice(inv.ID)
	require.NoError(t, err)

	clock.Set(time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC))
	first, err := e.AccrueLateInterest(inv.ID)
	require.NoError(t, err)
	second, err := e.AccrueLateInterest(inv.ID)
	require.NoError(t, err)
	assert.True(t, first.LateInterest.Equal(second.LateInterest), "re-evaluation must not compound")

	// 60 days late hits the 20% ceiling; the value is overwritten, not added.
	clock.Set(time.Date(2025, time.June, 9, 12, 0, 0, 0, time.UTC))
	capped, err := e.AccrueLateInterest(inv.ID)
	require.NoError(t, err)
	assert.True(t, capped.LateInterest.Equal(models.MustMoney("200.00")), "interest %s", capped.LateInterest)
}

func TestAccrueLateInterestNoOpBeforeDue(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, _, inv := invoiceFixture(t, clock)
	_, err := e.CloseInvoice(inv.ID)
	require.NoError(t, err)

	// On the due date itself nothing accrues.
	clock.Set(time.Date(2025, time.April, 10, 12, 0, 0, 0, time.UTC))
	got, err := e.AccrueLateInterest(inv.ID)
	require.NoError(t, err)
	assert.True(t, got.LateInterest.IsZero())
	assert.Equal(t, models.InvoiceClosed, got.Status)
}

func TestAccrueLateInterestNoOpWhileOpen(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, _, inv := invoiceFixture(t, clock)

	clock.Set(time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC))
	got, err := e.AccrueLateInterest(inv.ID)
	require.NoError(t, err)
	assert.True(t, got.LateInterest.IsZero())
	assert.Equal(t, models.InvoiceOpen, got.Status)
}

func TestPayFullRestoresCreditLimit(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, accountID, inv := invoiceFixture(t, clock)
	_, err := e.CloseInvoice(inv.ID)
	require.NoError(t, err)

	// Fund the balance to cover invoice plus interest.
	require.NoError(t, e.CreditBalance(accountID, models.MustMoney("500.00")))

	clock.Set(time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC))
	paid, err := e.PayFull(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	assert.True(t, paid.AmountDue.IsZero(), "amount due %s", paid.AmountDue)
	require.NotNil(t, paid.PaidAt)

	acc, _ := e.GetAccount(accountID)
	// 1000 grant + 500 top-up - 1070 due.
	assert.True(t, acc.Balance.Equal(models.MustMoney("430.00")), "balance %s", acc.Balance)
	// The limit was fully consumed at checkout; the paid installment (1000,
	// interest excluded) flows back.
	assert.True(t, acc.CreditLimit.Equal(models.MustMoney("1000.00")), "limit %s", acc.CreditLimit)

	history, _ := e.CreditHistory(accountID)
	require.NotEmpty(t, history)
	assert.Equal(t, models.CreditOpPayment, history[0].Op)
}

func TestPayFullTwiceFails(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, accountID, inv := invoiceFixture(t, clock)
	_, err := e.CloseInvoice(inv.ID)
	require.NoError(t, err)
	require.NoError(t, e.CreditBalance(accountID, models.MustMoney("500.00")))

	_, err = e.PayFull(inv.ID)
	require.NoError(t, err)

	_, err = e.PayFull(inv.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Limit restored exactly once.
	acc, _ := e.GetAccount(accountID)
	assert.True(t, acc.CreditLimit.Equal(models.MustMoney("1000.00")))
}

func TestPayFullInsufficientBalance(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, accountID, inv := invoiceFixture(t, clock)
	_, err := e.CloseInvoice(inv.ID)
	require.NoError(t, err)

	// Drain the balance below the invoice amount.
	require.NoError(t, e.DebitBalance(accountID, models.MustMoney("900.00")))

	_, err = e.PayFull(inv.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	got, _ := e.GetInvoice(inv.ID)
	assert.Equal(t, models.InvoiceClosed, got.Status)
	assert.True(t, got.Paid.IsZero())
}

func TestPayInstallment(t *testing.T) {
	clock := fixedClock(2025, time.March, 15)
	e, accountID, inv := invoiceFixture(t, clock)

	payments, err := e.InvoicePayments(inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.False(t, payments[0].IsPaid)
	require.True(t, payments[0].Amount.Equal(models.MustMoney("1000.00")))

	paid, err := e.PayInstallment(payments[0].ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)

	// Single line item, so the invoice settles completely.
	got, _ := e.GetInvoice(inv.ID)
	assert.Equal(t, models.InvoicePaid, got.Status)
	assert.True(t, got.Paid.Equal(models.MustMoney("1000.00")))

	acc, _ := e.GetAccount(accountID)
	assert.True(t, acc.Balance.IsZero(), "balance %s", acc.Balance)
	assert.True(t, acc.CreditLimit.Equal(models.MustMoney("1000.00")), "limit %s", acc.CreditLimit)

	// A settled payment cannot be paid again.
	_, err = e.PayInstallment(payments[0].ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRescheduleDueDatesClampsToMonth(t *testing.T) {
	clock := fixedClock(2025, time.January, 5)
	e, _, inv := invoiceFixture(t, clock)

	// The January invoice's scheduled payment falls due February 10;
	// moving it to day 31 clamps to February 28.
	require.NoError(t, e.RescheduleDueDates(inv.ID, 31))

	payments, err := e.InvoicePayments(inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.NotNil(t, payments[0].DueDate)
	assert.Equal(t, "2025-02-28", *payments[0].DueDate)
}

func TestRescheduleSkipsPaidAndPastPayments(t *testing.T) {
	clock := fixedClock(2025, time.January, 5)
	e, _, inv := invoiceFixture(t, clock)

	payments, err := e.InvoicePayments(inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	_, err = e.PayInstallment(payments[0].ID)
	require.NoError(t, err)

	require.NoError(t, e.RescheduleDueDates(inv.ID, 25))

	after, err := e.InvoicePayments(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, *payments[0].DueDate, *after[0].DueDate, "paid payments keep their date")
}

func TestRescheduleDueDayOutOfRange(t *testing.T) {
	clock := fixedClock(2025, time.January, 5)
	e, _, inv := invoiceFixture(t, clock)

	assert.ErrorIs(t, e.RescheduleDueDates(inv.ID, 0), ErrInvalidAmount)
	assert.ErrorIs(t, e.RescheduleDueDates(inv.ID, 32), ErrInvalidAmount)
}
