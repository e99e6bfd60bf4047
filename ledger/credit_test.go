package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxybank/backoffice/models"
)

func TestSubmitCreditRequest(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")

	req, err := e.SubmitCreditRequest(acc.ID, models.MustMoney("2000"), models.MustMoney("1500"), "engineer", "travel")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.True(t, req.RequestedAmount.Equal(models.MustMoney("2000")))
	assert.Nil(t, req.ApprovedAmount)
}

func TestSubmitCreditRequestBounds(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")

	_, err := e.SubmitCreditRequest(acc.ID, models.MustMoney("99.99"), models.MustMoney("5000"), "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.SubmitCreditRequest(acc.ID, models.MustMoney("50000.01"), models.MustMoney("99999"), "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSubmitCreditRequestIncomeMultiple(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")

	// 5000 requested on 900 income exceeds the 5x ceiling (4500).
	_, err := e.SubmitCreditRequest(acc.ID, models.MustMoney("5000"), models.MustMoney("900"), "", "")
	assert.ErrorIs(t, err, ErrExceedsIncomeMultiple)

	// Exactly 5x passes.
	_, err = e.SubmitCreditRequest(acc.ID, models.MustMoney("4500"), models.MustMoney("900"), "", "")
	assert.NoError(t, err)
}

func TestSubmitCreditRequestDuplicatePending(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")

	_, err := e.SubmitCreditRequest(acc.ID, models.MustMoney("1000"), models.MustMoney("3000"), "", "")
	require.NoError(t, err)

	_, err = e.SubmitCreditRequest(acc.ID, models.MustMoney("2000"), models.MustMoney("3000"), "", "")
	assert.ErrorIs(t, err, ErrDuplicatePendingRequest)
}

func TestApproveDefaultsToRequestedAmount(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")
	req, _ := e.SubmitCreditRequest(acc.ID, models.MustMoney("2000"), models.MustMoney("3000"), "", "")

	got, err := e.ApproveCreditRequest(req.ID, "carol", "", "looks fine")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, got.Status)
	require.NotNil(t, got.ApprovedAmount)
	assert.True(t, got.ApprovedAmount.Equal(models.MustMoney("2000")))
	require.NotNil(t, got.Evaluator)
	assert.Equal(t, "carol", *got.Evaluator)

	a, _ := e.GetAccount(acc.ID)
	assert.True(t, a.CreditApproved)
	assert.True(t, a.CreditLimit.Equal(models.MustMoney("2000")))
}

func TestApproveWithCommaDecimalOverride(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")
	req, _ := e.SubmitCreditRequest(acc.ID, models.MustMoney("2000"), models.MustMoney("3000"), "", "")

	got, err := e.ApproveCreditRequest(req.ID, "carol", "1500,50", "")
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedAmount)
	assert.True(t, got.ApprovedAmount.Equal(models.MustMoney("1500.50")))
}

func TestApproveInvalidOverrideKeepsRequestPending(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")
	req, _ := e.SubmitCreditRequest(acc.ID, models.MustMoney("2000"), models.MustMoney("3000"), "", "")

	_, err := e.ApproveCreditRequest(req.ID, "carol", "abc", "")
	assert.ErrorIs(t, err, ErrInvalidApprovalAmount)

	_, err = e.ApproveCreditRequest(req.ID, "carol", "-10", "")
	assert.ErrorIs(t, err, ErrInvalidApprovalAmount)

	got, _ := e.GetCreditRequest(req.ID)
	assert.Equal(t, models.RequestPending, got.Status)

	a, _ := e.GetAccount(acc.ID)
	assert.False(t, a.CreditApproved)
}

func TestDecisionOnTerminalRequest(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")
	req, _ := e.SubmitCreditRequest(acc.ID, models.MustMoney("2000"), models.MustMoney("3000"), "", "")

	_, err := e.RejectCreditRequest(req.ID, "carol", "too risky")
	require.NoError(t, err)

	_, err = e.ApproveCreditRequest(req.ID, "carol", "", "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = e.CancelCreditRequest(req.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelRequest(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	acc, _ := e.CreateAccount("Alice")
	req, _ := e.SubmitCreditRequest(acc.ID, models.MustMoney("2000"), models.MustMoney("3000"), "", "")

	got, err := e.CancelCreditRequest(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCancelled, got.Status)

	// A new request may be filed after the old one leaves pending.
	_, err = e.SubmitCreditRequest(acc.ID, models.MustMoney("1000"), models.MustMoney("3000"), "", "")
	assert.NoError(t, err)
}

func TestListCreditRequestsFilters(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	alice, _ := e.CreateAccount("Alice")
	bob, _ := e.CreateAccount("Bob")

	r1, _ := e.SubmitCreditRequest(alice.ID, models.MustMoney("1000"), models.MustMoney("3000"), "", "")
	_, err := e.SubmitCreditRequest(bob.ID, models.MustMoney("2000"), models.MustMoney("3000"), "", "")
	require.NoError(t, err)
	_, err = e.ApproveCreditRequest(r1.ID, "carol", "", "")
	require.NoError(t, err)

	pending, err := e.ListCreditRequests(0, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bob.ID, pending[0].AccountID)

	forAlice, err := e.ListCreditRequests(alice.ID, "")
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
	assert.Equal(t, models.RequestApproved, forAlice[0].Status)
}
