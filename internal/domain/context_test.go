package domain

import (
	"context"
	"testing"
)

func TestBuyerContext(t *testing.T) {
	t.Run("BuyerFromContext returns nil when no buyer", func(t *testing.T) {
		if got := BuyerFromContext(context.Background()); got != nil {
			t.Errorf("expected nil buyer, got %+v", got)
		}
	})

	t.Run("BuyerFromContext returns buyer when set", func(t *testing.T) {
		buyer := &Buyer{CompanyID: 42, CustomerGroupID: 7, CurrencyCode: "EUR"}
		ctx := NewContextWithBuyer(context.Background(), buyer)

		got := BuyerFromContext(ctx)
		if got == nil || got.CompanyID != 42 || got.CustomerGroupID != 7 {
			t.Errorf("unexpected buyer %+v", got)
		}
	})

	t.Run("BuyerOrDefault falls back to a guest in the store currency", func(t *testing.T) {
		got := BuyerOrDefault(context.Background(), "USD")
		if !got.IsGuest() {
			t.Error("expected guest buyer")
		}
		if got.CurrencyCode != "USD" {
			t.Errorf("expected USD, got %q", got.CurrencyCode)
		}
	})

	t.Run("BuyerOrDefault fills a missing currency without mutating the original", func(t *testing.T) {
		buyer := &Buyer{CompanyID: 3}
		ctx := NewContextWithBuyer(context.Background(), buyer)

		got := BuyerOrDefault(ctx, "CAD")
		if got.CurrencyCode != "CAD" || got.CompanyID != 3 {
			t.Errorf("unexpected buyer %+v", got)
		}
		if buyer.CurrencyCode != "" {
			t.Error("original buyer was modified")
		}
	})
}

func TestRequestIDContext(t *testing.T) {
	t.Run("RequestIDFromContext returns empty string when no request ID", func(t *testing.T) {
		if requestID := RequestIDFromContext(context.Background()); requestID != "" {
			t.Errorf("expected empty string, got %q", requestID)
		}
	})

	t.Run("RequestIDFromContext returns request ID when set", func(t *testing.T) {
		expected := "req-12345"
		ctx := NewContextWithRequestID(context.Background(), expected)

		if requestID := RequestIDFromContext(ctx); requestID != expected {
			t.Errorf("expected %q, got %q", expected, requestID)
		}
	})
}
