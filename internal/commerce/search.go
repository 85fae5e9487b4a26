package commerce

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/quickorder/internal/domain"
)

const searchProductsQuery = `query SearchProducts($productIds: [Int], $skus: [String], $currencyCode: String!, $companyId: Int, $customerGroupId: Int, $channelId: String) {
  productsSearch(productIds: $productIds, skus: $skus, currencyCode: $currencyCode, companyId: $companyId, customerGroupId: $customerGroupId, channelId: $channelId) {
    id
    name
    sku
    inventoryLevel
    inventoryTracking
    orderQuantityMinimum
    orderQuantityMaximum
    variants
  }
}`

// SearchParams scopes one batch product search. Prices are resolved for the
// buyer's currency and, when set, their company and customer group.
type SearchParams struct {
	ProductIDs      []int64
	SKUs            []string
	CurrencyCode    string
	CompanyID       int64
	CustomerGroupID int64
}

type searchData struct {
	ProductsSearch []searchProduct `json:"productsSearch"`
}

type searchProduct struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	SKU                  string          `json:"sku"`
	InventoryLevel       int             `json:"inventoryLevel"`
	InventoryTracking    string          `json:"inventoryTracking"`
	OrderQuantityMinimum int             `json:"orderQuantityMinimum"`
	OrderQuantityMaximum int             `json:"orderQuantityMaximum"`
	Variants             []searchVariant `json:"variants"`
}

type searchVariant struct {
	VariantID          int64           `json:"variant_id"`
	SKU                string          `json:"sku"`
	PurchasingDisabled bool            `json:"purchasing_disabled"`
	InventoryLevel     int             `json:"inventory_level"`
	CalculatedPrice    decimal.Decimal `json:"calculated_price"`
	Price              struct {
		TaxExclusive decimal.Decimal `json:"tax_exclusive"`
		TaxInclusive decimal.Decimal `json:"tax_inclusive"`
	} `json:"bc_calculated_price"`
}

// SearchProducts runs one batch search and flattens the result into one
// availability row per purchasable variant. Products without variants
// become a single row with a zero variant ID.
func (c *Client) SearchProducts(ctx context.Context, params SearchParams) ([]domain.ProductAvailability, error) {
	const op = "commerce.search_products"

	if len(params.ProductIDs) == 0 && len(params.SKUs) == 0 {
		return nil, nil
	}

	vars := map[string]interface{}{
		"currencyCode": params.CurrencyCode,
	}
	if len(params.ProductIDs) > 0 {
		vars["productIds"] = params.ProductIDs
	}
	if len(params.SKUs) > 0 {
		vars["skus"] = params.SKUs
	}
	if params.CompanyID != 0 {
		vars["companyId"] = params.CompanyID
	}
	if params.CustomerGroupID != 0 {
		vars["customerGroupId"] = params.CustomerGroupID
	}

	var data searchData
	gqlErrs, err := c.read(ctx, "search_products", searchProductsQuery, c.withChannel(vars), &data)
	if err != nil {
		return nil, domain.Unavailable(err, op, "Product search is unavailable. Please try again.")
	}
	if len(gqlErrs) > 0 {
		return nil, domain.Unavailable(
			fmt.Errorf("%w: %v", ErrQueryFailed, messages(gqlErrs)),
			op, "Product search is unavailable. Please try again.")
	}

	rows := make([]domain.ProductAvailability, 0, len(data.ProductsSearch))
	for _, p := range data.ProductsSearch {
		rows = append(rows, flatten(p)...)
	}
	return rows, nil
}

func flatten(p searchProduct) []domain.ProductAvailability {
	mode := domain.ParseTrackingMode(p.InventoryTracking)

	if len(p.Variants) == 0 {
		level := 0
		if mode != domain.TrackingNone {
			level = p.InventoryLevel
		}
		return []domain.ProductAvailability{{
			ProductID:            p.ID,
			SKU:                  p.SKU,
			Name:                 p.Name,
			TrackingMode:         mode,
			InventoryLevel:       level,
			OrderQuantityMinimum: p.OrderQuantityMinimum,
			OrderQuantityMaximum: p.OrderQuantityMaximum,
		}}
	}

	rows := make([]domain.ProductAvailability, 0, len(p.Variants))
	for _, v := range p.Variants {
		level := 0
		switch mode {
		case domain.TrackingProduct:
			level = p.InventoryLevel
		case domain.TrackingVariant:
			level = v.InventoryLevel
		}

		base, tax := variantPrices(v)
		rows = append(rows, domain.ProductAvailability{
			ProductID:            p.ID,
			VariantID:            v.VariantID,
			SKU:                  v.SKU,
			Name:                 p.Name,
			TrackingMode:         mode,
			InventoryLevel:       level,
			PurchasingDisabled:   v.PurchasingDisabled,
			OrderQuantityMinimum: p.OrderQuantityMinimum,
			OrderQuantityMaximum: p.OrderQuantityMaximum,
			BasePrice:            base,
			TaxPrice:             tax,
		})
	}
	return rows
}

// variantPrices splits the platform's calculated price into a tax-exclusive
// base and the tax on top of it. Without a calculated price breakdown the
// plain calculated price is used and tax is zero.
func variantPrices(v searchVariant) (base, tax decimal.Decimal) {
	base = v.Price.TaxExclusive
	if base.IsZero() {
		return v.CalculatedPrice, decimal.Zero
	}
	if v.Price.TaxInclusive.GreaterThan(base) {
		tax = v.Price.TaxInclusive.Sub(base)
	}
	return base, tax
}
