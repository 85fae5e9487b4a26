package commerce

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/quickorder/internal/domain"
)

const validateProductsQuery = `query ValidateProducts($cartId: String, $currencyCode: String!, $companyId: Int, $customerGroupId: Int, $channelId: String, $items: [ValidateProductInput!]!) {
  validateProducts(cartId: $cartId, currencyCode: $currencyCode, companyId: $companyId, customerGroupId: $customerGroupId, channelId: $channelId, items: $items) {
    productId
    variantId
    responseType
    message
  }
}`

// ValidateLineInput is one line sent for backend validation. Quantity is
// the amount requested by this pass; the platform adds the cart itself.
type ValidateLineInput struct {
	ProductID int64 `json:"productId"`
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}

// ValidateParams scopes a backend validation call.
type ValidateParams struct {
	CartID          string
	CurrencyCode    string
	CompanyID       int64
	CustomerGroupID int64
	Lines           []ValidateLineInput
}

// RemoteVerdict is the platform's answer for one line. ResponseType is
// SUCCESS, WARNING, or ERROR; only ERROR rejects the line.
type RemoteVerdict struct {
	ProductID    int64  `json:"productId"`
	VariantID    int64  `json:"variantId"`
	ResponseType string `json:"responseType"`
	Message      string `json:"message"`
}

// Rejected reports whether the platform refused the line.
func (v RemoteVerdict) Rejected() bool {
	return strings.EqualFold(v.ResponseType, "ERROR")
}

type validateData struct {
	ValidateProducts []RemoteVerdict `json:"validateProducts"`
}

// ValidateLines asks the platform to validate lines in one round-trip.
// Verdicts come back in the order the lines were sent.
func (c *Client) ValidateLines(ctx context.Context, params ValidateParams) ([]RemoteVerdict, error) {
	const op = "commerce.validate_lines"

	if len(params.Lines) == 0 {
		return nil, nil
	}

	vars := map[string]interface{}{
		"currencyCode": params.CurrencyCode,
		"items":        params.Lines,
	}
	if params.CartID != "" {
		vars["cartId"] = params.CartID
	}
	if params.CompanyID != 0 {
		vars["companyId"] = params.CompanyID
	}
	if params.CustomerGroupID != 0 {
		vars["customerGroupId"] = params.CustomerGroupID
	}

	var data validateData
	gqlErrs, err := c.read(ctx, "validate_lines", validateProductsQuery, c.withChannel(vars), &data)
	if err != nil {
		return nil, domain.Unavailable(err, op, "Line validation is unavailable. Please try again.")
	}
	if len(gqlErrs) > 0 {
		return nil, domain.Unavailable(
			fmt.Errorf("%w: %v", ErrQueryFailed, messages(gqlErrs)),
			op, "Line validation is unavailable. Please try again.")
	}
	if len(data.ValidateProducts) != len(params.Lines) {
		return nil, domain.Internal(
			fmt.Errorf("%w: sent %d, got %d", ErrVerdictMismatch, len(params.Lines), len(data.ValidateProducts)),
			op, "line validation returned an unexpected result")
	}
	return data.ValidateProducts, nil
}
