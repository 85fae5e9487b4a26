package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/quickorder/internal/commerce"
	"github.com/dukerupert/quickorder/internal/domain"
	"github.com/dukerupert/quickorder/internal/pricing"
	"github.com/dukerupert/quickorder/internal/reconcile"
	"github.com/dukerupert/quickorder/internal/telemetry"
	"github.com/dukerupert/quickorder/internal/validation"
)

// ProductSearcher is the batch product search collaborator.
type ProductSearcher interface {
	SearchProducts(ctx context.Context, params commerce.SearchParams) ([]domain.ProductAvailability, error)
}

// CartReader loads the active cart's quantities.
type CartReader interface {
	GetCart(ctx context.Context, cartID string) (domain.CartSnapshot, error)
}

// LineValidator is the platform-side line validation collaborator.
type LineValidator interface {
	ValidateLines(ctx context.Context, params commerce.ValidateParams) ([]commerce.RemoteVerdict, error)
}

// ReconcileService runs reconciliation passes for pending quick-order lists.
type ReconcileService interface {
	// Reconcile validates lines against one product search and one cart
	// lookup. Any collaborator failure aborts the pass with no partial
	// result.
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)

	// Forget drops generation tracking for a list once it has been
	// submitted or discarded.
	Forget(listID string)
}

// ReconcileRequest is one pass over a pending list.
type ReconcileRequest struct {
	// ListID identifies the pending list for stale-pass detection. Empty
	// means the pass is never considered stale.
	ListID string
	CartID string
	Buyer  domain.Buyer
	Source domain.LineSource
	Lines  []domain.OrderLine
}

// ReconcileResult is the outcome of a pass. A Stale result was overtaken by
// a newer pass for the same list and should be discarded.
type ReconcileResult struct {
	Ticket         reconcile.Ticket
	Stale          bool
	CartID         string
	Reconciliation domain.Reconciliation
	Summary        pricing.Summary
}

// ReconcileOptions are the store settings a pass runs under.
type ReconcileOptions struct {
	Stock validation.StockOptions

	// BackendValidation makes the platform's verdicts authoritative. The
	// local rules are used when it is off.
	BackendValidation bool
}

type reconcileService struct {
	search      ProductSearcher
	carts       CartReader
	validator   LineValidator
	generations *reconcile.Generations
	pricer      *pricing.Pricer
	opts        ReconcileOptions
	metrics     *telemetry.BusinessMetrics
	logger      *slog.Logger
}

// NewReconcileService creates a ReconcileService. validator is only used
// when opts.BackendValidation is set; metrics may be nil.
func NewReconcileService(
	search ProductSearcher,
	carts CartReader,
	validator LineValidator,
	generations *reconcile.Generations,
	pricer *pricing.Pricer,
	opts ReconcileOptions,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) ReconcileService {
	if validator == nil {
		opts.BackendValidation = false
	}
	return &reconcileService{
		search:      search,
		carts:       carts,
		validator:   validator,
		generations: generations,
		pricer:      pricer,
		opts:        opts,
		metrics:     metrics,
		logger:      logger,
	}
}

// Reconcile runs search, then cart lookup, then validation. The search is
// issued once with every distinct product ID and SKU in the batch.
func (s *reconcileService) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	start := time.Now()
	source := metricSource(req.Source)

	if len(req.Lines) == 0 {
		s.metrics.RecordPass(source, "invalid", 0, time.Since(start))
		return nil, ErrNoLines
	}

	ticket := s.generations.Begin(req.ListID)
	keys := reconcile.LookupKeys(req.Lines)

	rows, err := s.search.SearchProducts(ctx, commerce.SearchParams{
		ProductIDs:      keys.ProductIDs,
		SKUs:            keys.SKUs,
		CurrencyCode:    req.Buyer.CurrencyCode,
		CompanyID:       req.Buyer.CompanyID,
		CustomerGroupID: req.Buyer.CustomerGroupID,
	})
	if err != nil {
		s.fail(source, len(req.Lines), start, err)
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, req.CartID)
	if err != nil {
		s.fail(source, len(req.Lines), start, err)
		return nil, err
	}

	catalog := reconcile.NewCatalog(rows)

	var rec domain.Reconciliation
	if s.opts.BackendValidation {
		rec, err = s.validateRemotely(ctx, req, catalog, cart)
		if err != nil {
			s.fail(source, len(req.Lines), start, err)
			return nil, err
		}
	} else {
		rec = reconcile.Lines(req.Lines, catalog, cart, reconcile.Options{Stock: s.opts.Stock})
	}

	result := &ReconcileResult{
		Ticket:         ticket,
		Stale:          !s.generations.Current(ticket),
		CartID:         cart.CartID,
		Reconciliation: rec,
		Summary:        s.pricer.Summarize(rec.Valid),
	}

	outcome := "ok"
	if result.Stale {
		outcome = "stale"
	}
	s.metrics.RecordPass(source, outcome, len(req.Lines), time.Since(start))
	for range rec.Valid {
		s.metrics.RecordLineOutcome(source, string(domain.ReasonValid))
	}
	for _, e := range rec.Errors {
		s.metrics.RecordLineOutcome(source, string(e.Outcome.Reason))
	}

	s.logger.Info("reconcile pass finished",
		"list_id", req.ListID,
		"generation", ticket.Generation,
		"lines", len(req.Lines),
		"valid", len(rec.Valid),
		"errors", len(rec.Errors),
		"catalog_rows", catalog.Len(),
		"stale", result.Stale,
		"backend_validation", s.opts.BackendValidation,
	)

	return result, nil
}

func (s *reconcileService) Forget(listID string) {
	s.generations.Forget(listID)
}

func (s *reconcileService) fail(source string, lines int, start time.Time, err error) {
	outcome := "error"
	if domain.IsRetryable(err) {
		outcome = "unavailable"
	}
	s.metrics.RecordPass(source, outcome, lines, time.Since(start))
	s.logger.Warn("reconcile pass aborted", "lines", lines, "error", err)
}

// validateRemotely resolves lines locally and lets the platform judge the
// resolved ones in a single call. Lines that fail to resolve never reach
// the platform. Lines for the same variant are sent as one input carrying
// their summed quantity, and its verdict applies to each of them.
func (s *reconcileService) validateRemotely(ctx context.Context, req ReconcileRequest, catalog reconcile.Catalog, cart domain.CartSnapshot) (domain.Reconciliation, error) {
	outcomes := make([]domain.Outcome, len(req.Lines))
	products := make([]domain.ProductAvailability, len(req.Lines))
	slotOf := make([]int, len(req.Lines))
	slots := make(map[domain.LineKey]int)
	var inputs []commerce.ValidateLineInput

	for i, line := range req.Lines {
		slotOf[i] = -1
		if line.Quantity < 1 {
			outcomes[i] = domain.Outcome{Reason: domain.ReasonGeneric, Message: "Quantity must be greater than 0", SKU: line.SKU}
			continue
		}
		product, ok := catalog.Resolve(line)
		if !ok {
			outcomes[i] = reconcile.NotFound(line)
			continue
		}
		products[i] = product

		slot, seen := slots[product.Key()]
		if !seen {
			slot = len(inputs)
			slots[product.Key()] = slot
			inputs = append(inputs, commerce.ValidateLineInput{
				ProductID: product.ProductID,
				VariantID: product.VariantID,
			})
		}
		inputs[slot].Quantity += line.Quantity
		slotOf[i] = slot
	}

	if len(inputs) > 0 {
		verdicts, err := s.validator.ValidateLines(ctx, commerce.ValidateParams{
			CartID:          cart.CartID,
			CurrencyCode:    req.Buyer.CurrencyCode,
			CompanyID:       req.Buyer.CompanyID,
			CustomerGroupID: req.Buyer.CustomerGroupID,
			Lines:           inputs,
		})
		if err != nil {
			return domain.Reconciliation{}, err
		}
		if len(verdicts) != len(inputs) {
			return domain.Reconciliation{}, domain.Internal(commerce.ErrVerdictMismatch, "service.reconcile", "line validation returned an unexpected result")
		}
		for i, slot := range slotOf {
			if slot < 0 {
				continue
			}
			sku := products[i].SKU
			if verdicts[slot].Rejected() {
				outcomes[i] = domain.Outcome{Reason: Classify(verdicts[slot].Message), Message: verdicts[slot].Message, SKU: sku}
			} else {
				outcomes[i] = domain.ValidOutcome(sku)
			}
		}
	}

	rec := domain.Reconciliation{
		Valid:  make([]domain.OrderLine, 0, len(req.Lines)),
		Errors: make([]domain.LineError, 0),
	}
	for i, line := range req.Lines {
		if outcomes[i].Valid() {
			rec.Valid = append(rec.Valid, reconcile.Resolve(line, products[i]))
			continue
		}
		rec.Errors = append(rec.Errors, domain.LineError{Line: line, Outcome: outcomes[i]})
	}
	return rec, nil
}

func metricSource(src domain.LineSource) string {
	if src == "" {
		return string(domain.LineSourceManual)
	}
	return string(src)
}
