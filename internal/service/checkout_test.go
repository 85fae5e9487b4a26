package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/quickorder/internal/domain"
)

func reconciled(valid []domain.OrderLine, errs []domain.LineError) *ReconcileResult {
	return &ReconcileResult{
		CartID:         "cart-1",
		Reconciliation: domain.Reconciliation{Valid: valid, Errors: errs},
	}
}

func TestReconcileAndSubmit_SubmitsValidSubset(t *testing.T) {
	valid := resolvedLines()
	lineErrors := []domain.LineError{{
		Line:    domain.OrderLine{ID: "z", SKU: "GONE", Quantity: 1},
		Outcome: domain.Outcome{Reason: domain.ReasonNotFound, SKU: "GONE"},
	}}
	rec := &mockReconcileService{result: reconciled(valid, lineErrors)}
	sub := &mockSubmissionService{result: &SubmitResult{CartID: "cart-1", LineCount: 2, ItemCount: 7}}
	flow := NewCheckoutFlow(rec, sub, discardLogger())

	result, err := flow.ReconcileAndSubmit(context.Background(), ReconcileRequest{ListID: "list-1", CartID: "cart-1"})
	require.NoError(t, err)

	assert.True(t, result.Submitted())
	assert.Equal(t, valid, sub.lines)
	assert.Equal(t, "cart-1", sub.cartID)
	assert.Equal(t, lineErrors, result.Reconcile.Reconciliation.Errors)
	assert.Equal(t, []string{"list-1"}, rec.forgot)
}

func TestReconcileAndSubmit_UsesReconciledCartID(t *testing.T) {
	result := reconciled(resolvedLines(), nil)
	result.CartID = ""
	rec := &mockReconcileService{result: result}
	sub := &mockSubmissionService{result: &SubmitResult{CartID: "cart-new", Created: true}}
	flow := NewCheckoutFlow(rec, sub, discardLogger())

	_, err := flow.ReconcileAndSubmit(context.Background(), ReconcileRequest{ListID: "list-1", CartID: "expired"})
	require.NoError(t, err)
	assert.Empty(t, sub.cartID, "a vanished cart is recreated")
}

func TestReconcileAndSubmit_NothingValid(t *testing.T) {
	rec := &mockReconcileService{result: reconciled([]domain.OrderLine{}, nil)}
	sub := &mockSubmissionService{}
	flow := NewCheckoutFlow(rec, sub, discardLogger())

	result, err := flow.ReconcileAndSubmit(context.Background(), ReconcileRequest{ListID: "list-1"})
	require.NoError(t, err)
	assert.False(t, result.Submitted())
	assert.Equal(t, 0, sub.calls)
	assert.Empty(t, rec.forgot)
}

func TestReconcileAndSubmit_StalePassIsNotSubmitted(t *testing.T) {
	result := reconciled(resolvedLines(), nil)
	result.Stale = true
	rec := &mockReconcileService{result: result}
	sub := &mockSubmissionService{}
	flow := NewCheckoutFlow(rec, sub, discardLogger())

	_, err := flow.ReconcileAndSubmit(context.Background(), ReconcileRequest{ListID: "list-1"})
	assert.ErrorIs(t, err, ErrStalePass)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Equal(t, 0, sub.calls)
}

func TestReconcileAndSubmit_SubmissionRejected(t *testing.T) {
	failures := []Failure{{Reason: domain.ReasonAboveMaximum, Message: "Maximum quantity is 10"}}
	rec := &mockReconcileService{result: reconciled(resolvedLines(), nil)}
	sub := &mockSubmissionService{err: &SubmissionError{Failures: failures}}
	flow := NewCheckoutFlow(rec, sub, discardLogger())

	result, err := flow.ReconcileAndSubmit(context.Background(), ReconcileRequest{ListID: "list-1"})
	require.NoError(t, err)
	assert.False(t, result.Submitted())
	assert.Equal(t, failures, result.Failures)
	assert.Empty(t, rec.forgot, "the list stays pending after a rejection")
}

func TestReconcileAndSubmit_Errors(t *testing.T) {
	unavailable := domain.Unavailable(errors.New("reset"), "commerce", "The cart could not be reached. Please try again.")

	t.Run("reconcile", func(t *testing.T) {
		rec := &mockReconcileService{err: unavailable}
		sub := &mockSubmissionService{}
		flow := NewCheckoutFlow(rec, sub, discardLogger())

		_, err := flow.ReconcileAndSubmit(context.Background(), ReconcileRequest{ListID: "list-1"})
		assert.ErrorIs(t, err, unavailable)
		assert.Equal(t, 0, sub.calls)
	})

	t.Run("submit", func(t *testing.T) {
		rec := &mockReconcileService{result: reconciled(resolvedLines(), nil)}
		sub := &mockSubmissionService{err: unavailable}
		flow := NewCheckoutFlow(rec, sub, discardLogger())

		_, err := flow.ReconcileAndSubmit(context.Background(), ReconcileRequest{ListID: "list-1"})
		assert.ErrorIs(t, err, unavailable)
	})
}
