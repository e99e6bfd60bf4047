package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxybank/backoffice/models"
)

func TestCreateAccountGrantsSignupBalance(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	acc, err := e.CreateAccount("Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", acc.Name)
	assert.True(t, acc.Balance.Equal(models.MustMoney("1000.00")))
	assert.False(t, acc.CreditApproved)
	assert.True(t, acc.CreditLimit.IsZero())
}

func TestGetAccountNotFound(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	_, err := e.GetAccount(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDebitBalance(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, err := e.CreateAccount("Alice")
	require.NoError(t, err)

	require.NoError(t, e.DebitBalance(acc.ID, models.MustMoney("250.50")))

	got, err := e.GetAccount(acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(models.MustMoney("749.50")), "got %s", got.Balance)
}

func TestDebitBalanceInsufficient(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, err := e.CreateAccount("Alice")
	require.NoError(t, err)

	err = e.DebitBalance(acc.ID, models.MustMoney("1000.01"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing applied
	got, _ := e.GetAccount(acc.ID)
	assert.True(t, got.Balance.Equal(models.MustMoney("1000.00")))
}

func TestDebitBalanceRejectsNonPositive(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, err := e.CreateAccount("Alice")
	require.NoError(t, err)

	assert.ErrorIs(t, e.DebitBalance(acc.ID, models.MustMoney("0")), ErrInvalidAmount)
	assert.ErrorIs(t, e.DebitBalance(acc.ID, models.MustMoney("-5")), ErrInvalidAmount)
}

func TestCreditBalance(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, err := e.CreateAccount("Alice")
	require.NoError(t, err)

	require.NoError(t, e.CreditBalance(acc.ID, models.MustMoney("99.99")))

	got, err := e.GetAccount(acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(models.MustMoney("1099.99")))
}

func TestSetCreditLimitWritesAdjustmentEntry(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, err := e.CreateAccount("Alice")
	require.NoError(t, err)

	require.NoError(t, e.SetCreditLimit(acc.ID, models.MustMoney("500.00"), true, "manual adjustment"))

	got, err := e.GetAccount(acc.ID)
	require.NoError(t, err)
	assert.True(t, got.CreditApproved)
	assert.True(t, got.CreditLimit.Equal(models.MustMoney("500.00")))

	entries, err := e.CreditHistory(acc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.CreditOpAdjustment, entries[0].Op)
	// The unapproved prior limit never counted as spendable.
	assert.True(t, entries[0].LimitBefore.IsZero())
	assert.True(t, entries[0].LimitAfter.Equal(models.MustMoney("500.00")))
}
