package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/quickorder/internal/commerce"
	"github.com/dukerupert/quickorder/internal/domain"
)

// ============================================================================
// Mock Implementations
// ============================================================================

type mockSearcher struct {
	rows     []domain.ProductAvailability
	err      error
	calls    int
	params   commerce.SearchParams
	onSearch func()
}

func (m *mockSearcher) SearchProducts(ctx context.Context, params commerce.SearchParams) ([]domain.ProductAvailability, error) {
	m.calls++
	m.params = params
	if m.onSearch != nil {
		m.onSearch()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type mockCartReader struct {
	cart   domain.CartSnapshot
	err    error
	calls  int
	cartID string
}

func (m *mockCartReader) GetCart(ctx context.Context, cartID string) (domain.CartSnapshot, error) {
	m.calls++
	m.cartID = cartID
	if m.err != nil {
		return domain.CartSnapshot{}, m.err
	}
	return m.cart, nil
}

type mockValidator struct {
	verdicts []commerce.RemoteVerdict
	err      error
	calls    int
	params   commerce.ValidateParams
}

func (m *mockValidator) ValidateLines(ctx context.Context, params commerce.ValidateParams) ([]commerce.RemoteVerdict, error) {
	m.calls++
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return m.verdicts, nil
}

type mockCartWriter struct {
	createID    string
	addID       string
	err         error
	createCalls int
	addCalls    int
	cartID      string
	lines       []commerce.CartLineInput
}

func (m *mockCartWriter) CreateCart(ctx context.Context, lines []commerce.CartLineInput) (string, error) {
	m.createCalls++
	m.lines = lines
	if m.err != nil {
		return "", m.err
	}
	return m.createID, nil
}

func (m *mockCartWriter) AddLinesToCart(ctx context.Context, cartID string, lines []commerce.CartLineInput) (string, error) {
	m.addCalls++
	m.cartID = cartID
	m.lines = lines
	if m.err != nil {
		return "", m.err
	}
	return m.addID, nil
}

type mockReconcileService struct {
	result   *ReconcileResult
	err      error
	calls    int
	forgot   []string
	received ReconcileRequest
}

func (m *mockReconcileService) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	m.calls++
	m.received = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockReconcileService) Forget(listID string) {
	m.forgot = append(m.forgot, listID)
}

type mockSubmissionService struct {
	result *SubmitResult
	err    error
	calls  int
	lines  []domain.OrderLine
	cartID string
}

func (m *mockSubmissionService) Submit(ctx context.Context, lines []domain.OrderLine, cartID string) (*SubmitResult, error) {
	m.calls++
	m.lines = lines
	m.cartID = cartID
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// ============================================================================
// Fixtures
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shirtMedium() domain.ProductAvailability {
	return domain.ProductAvailability{
		ProductID:            10,
		VariantID:            100,
		SKU:                  "SHIRT-M",
		Name:                 "Shirt",
		TrackingMode:         domain.TrackingVariant,
		InventoryLevel:       50,
		OrderQuantityMinimum: 5,
		BasePrice:            decimal.RequireFromString("10.00"),
		TaxPrice:             decimal.RequireFromString("1.00"),
	}
}

func mug() domain.ProductAvailability {
	return domain.ProductAvailability{
		ProductID:    20,
		VariantID:    200,
		SKU:          "MUG",
		Name:         "Mug",
		TrackingMode: domain.TrackingNone,
		BasePrice:    decimal.RequireFromString("4.00"),
	}
}
