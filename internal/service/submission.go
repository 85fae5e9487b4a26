package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/quickorder/internal/commerce"
	"github.com/dukerupert/quickorder/internal/domain"
	"github.com/dukerupert/quickorder/internal/telemetry"
)

// CartWriter is the cart mutation collaborator.
type CartWriter interface {
	CreateCart(ctx context.Context, lines []commerce.CartLineInput) (string, error)
	AddLinesToCart(ctx context.Context, cartID string, lines []commerce.CartLineInput) (string, error)
}

// SubmissionService sends reconciled lines to the cart.
type SubmissionService interface {
	// Submit creates a cart seeded with lines when cartID is empty and
	// appends to cartID otherwise. Exactly one request is made and nothing
	// is retried. A platform rejection is returned as *SubmissionError.
	Submit(ctx context.Context, lines []domain.OrderLine, cartID string) (*SubmitResult, error)
}

// SubmitResult describes an accepted submission.
type SubmitResult struct {
	CartID    string `json:"cart_id"`
	Created   bool   `json:"created"`
	LineCount int    `json:"line_count"`
	ItemCount int    `json:"item_count"`
}

// Failure is one classified cart error.
type Failure struct {
	Reason  domain.Reason `json:"reason"`
	Message string        `json:"message"`
}

// SubmissionError is a cart mutation the platform rejected. Messages are
// kept verbatim for display.
type SubmissionError struct {
	Failures []Failure
}

func (e *SubmissionError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("cart submission rejected: %s", strings.Join(msgs, "; "))
}

// Classify maps a platform error message onto the line error taxonomy by
// keyword, case-insensitively. Anything unrecognised is generic.
func Classify(message string) domain.Reason {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "stock"):
		return domain.ReasonOutOfStock
	case strings.Contains(lower, "minimum"):
		return domain.ReasonBelowMinimum
	case strings.Contains(lower, "maximum"):
		return domain.ReasonAboveMaximum
	default:
		return domain.ReasonGeneric
	}
}

type submissionService struct {
	carts   CartWriter
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewSubmissionService creates a SubmissionService. metrics may be nil.
func NewSubmissionService(carts CartWriter, metrics *telemetry.BusinessMetrics, logger *slog.Logger) SubmissionService {
	return &submissionService{carts: carts, metrics: metrics, logger: logger}
}

func (s *submissionService) Submit(ctx context.Context, lines []domain.OrderLine, cartID string) (*SubmitResult, error) {
	if len(lines) == 0 {
		return nil, ErrNothingToSubmit
	}

	inputs := make([]commerce.CartLineInput, 0, len(lines))
	items := 0
	for _, line := range lines {
		if line.ProductID == 0 || line.Quantity < 1 {
			return nil, ErrUnresolvedLine
		}
		inputs = append(inputs, commerce.CartLineInput{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
		items += line.Quantity
	}

	mode := "append"
	var (
		resultID string
		err      error
	)
	if cartID == "" {
		mode = "create"
		resultID, err = s.carts.CreateCart(ctx, inputs)
	} else {
		resultID, err = s.carts.AddLinesToCart(ctx, cartID, inputs)
	}

	if err != nil {
		var mutErr *commerce.MutationError
		if errors.As(err, &mutErr) {
			subErr := &SubmissionError{Failures: make([]Failure, 0, len(mutErr.Messages))}
			for _, msg := range mutErr.Messages {
				reason := Classify(msg)
				subErr.Failures = append(subErr.Failures, Failure{Reason: reason, Message: msg})
				s.metrics.RecordSubmissionFailure(string(reason))
			}
			s.metrics.RecordSubmission(mode, "rejected")
			s.logger.Info("cart submission rejected", "mode", mode, "cart_id", cartID, "failures", len(subErr.Failures))
			return nil, subErr
		}

		outcome := "error"
		if domain.IsRetryable(err) {
			outcome = "unavailable"
		}
		s.metrics.RecordSubmission(mode, outcome)
		s.logger.Warn("cart submission failed", "mode", mode, "cart_id", cartID, "error", err)
		return nil, err
	}

	s.metrics.RecordSubmission(mode, "success")
	s.logger.Info("cart submission accepted", "mode", mode, "cart_id", resultID, "lines", len(inputs), "items", items)

	return &SubmitResult{
		CartID:    resultID,
		Created:   cartID == "",
		LineCount: len(inputs),
		ItemCount: items,
	}, nil
}
