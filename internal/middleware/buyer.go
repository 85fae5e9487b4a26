package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/quickorder/internal/domain"
	"github.com/dukerupert/quickorder/internal/telemetry"
)

// Buyer headers set by the storefront session layer in front of this API.
const (
	CompanyIDHeader       = "X-Company-ID"
	CustomerGroupIDHeader = "X-Customer-Group-ID"
	CurrencyHeader        = "X-Currency-Code"
)

// WithBuyer resolves the buyer from request headers and stores it in the
// context. Missing headers mean a guest buying in defaultCurrency;
// malformed IDs are rejected with 400.
func WithBuyer(defaultCurrency string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			companyID, err := headerID(r, CompanyIDHeader)
			if err != nil {
				respondBadRequest(w, r, CompanyIDHeader+" must be a non-negative integer")
				return
			}
			groupID, err := headerID(r, CustomerGroupIDHeader)
			if err != nil {
				respondBadRequest(w, r, CustomerGroupIDHeader+" must be a non-negative integer")
				return
			}

			currency := strings.ToUpper(strings.TrimSpace(r.Header.Get(CurrencyHeader)))
			if currency == "" {
				currency = defaultCurrency
			}

			buyer := &domain.Buyer{
				CompanyID:       companyID,
				CustomerGroupID: groupID,
				CurrencyCode:    currency,
			}
			ctx := domain.NewContextWithBuyer(r.Context(), buyer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SentryBuyer extracts buyer tags for telemetry.SentryContextMiddleware.
func SentryBuyer(ctx context.Context) *telemetry.BuyerInfo {
	buyer := domain.BuyerFromContext(ctx)
	if buyer == nil || buyer.IsGuest() {
		return nil
	}
	return &telemetry.BuyerInfo{CompanyID: buyer.CompanyID, CustomerGroupID: buyer.CustomerGroupID}
}

func headerID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
