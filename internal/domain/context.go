// Package domain provides the order-line model, the validation taxonomy and
// request-scoped context helpers shared across quickorder.
package domain

import (
	"context"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// buyerContextKey stores the B2B buyer identity in context.
	buyerContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// Buyer identifies who is ordering. Product search prices and visibility
// depend on the company, customer group and currency.
type Buyer struct {
	CompanyID       int64  `json:"company_id"`
	CustomerGroupID int64  `json:"customer_group_id"`
	CurrencyCode    string `json:"currency_code"`
}

// IsGuest reports whether no company is attached.
func (b Buyer) IsGuest() bool {
	return b.CompanyID == 0
}

// --- Buyer Context Helpers ---

// NewContextWithBuyer returns a new context with the buyer attached.
func NewContextWithBuyer(ctx context.Context, buyer *Buyer) context.Context {
	return context.WithValue(ctx, buyerContextKey, buyer)
}

// BuyerFromContext retrieves the buyer from context.
// Returns nil if no buyer is present.
func BuyerFromContext(ctx context.Context) *Buyer {
	buyer, _ := ctx.Value(buyerContextKey).(*Buyer)
	return buyer
}

// BuyerOrDefault returns the buyer in ctx, or a guest buyer paying in
// currency when none is attached. A buyer without a currency inherits it.
func BuyerOrDefault(ctx context.Context, currency string) Buyer {
	b := BuyerFromContext(ctx)
	if b == nil {
		return Buyer{CurrencyCode: currency}
	}
	out := *b
	if out.CurrencyCode == "" {
		out.CurrencyCode = currency
	}
	return out
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
