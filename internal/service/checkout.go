package service

import (
	"context"
	"errors"
	"log/slog"
)

// CheckoutFlow reconciles a pending list and adds the valid lines to the
// cart in one call.
type CheckoutFlow interface {
	ReconcileAndSubmit(ctx context.Context, req ReconcileRequest) (*CheckoutResult, error)
}

// CheckoutResult carries the per-line errors of the pass and, when lines
// were sent, either the accepted submission or the platform's failures.
type CheckoutResult struct {
	Reconcile  *ReconcileResult
	Submission *SubmitResult
	Failures   []Failure
}

// Submitted reports whether the cart accepted the lines.
func (r *CheckoutResult) Submitted() bool {
	return r.Submission != nil
}

type checkoutFlow struct {
	reconciler ReconcileService
	submitter  SubmissionService
	logger     *slog.Logger
}

// NewCheckoutFlow creates a CheckoutFlow.
func NewCheckoutFlow(reconciler ReconcileService, submitter SubmissionService, logger *slog.Logger) CheckoutFlow {
	return &checkoutFlow{reconciler: reconciler, submitter: submitter, logger: logger}
}

// ReconcileAndSubmit submits only the valid subset. A stale pass is never
// submitted. With no valid lines the result carries just the line errors.
func (f *checkoutFlow) ReconcileAndSubmit(ctx context.Context, req ReconcileRequest) (*CheckoutResult, error) {
	rec, err := f.reconciler.Reconcile(ctx, req)
	if err != nil {
		return nil, err
	}
	if rec.Stale {
		return nil, ErrStalePass
	}

	result := &CheckoutResult{Reconcile: rec}
	if len(rec.Reconciliation.Valid) == 0 {
		return result, nil
	}

	sub, err := f.submitter.Submit(ctx, rec.Reconciliation.Valid, rec.CartID)
	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			result.Failures = subErr.Failures
			return result, nil
		}
		return nil, err
	}

	result.Submission = sub
	f.reconciler.Forget(req.ListID)
	f.logger.Debug("pending list submitted", "list_id", req.ListID, "cart_id", sub.CartID)

	return result, nil
}
