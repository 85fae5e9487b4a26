// Package reconcile validates a set of candidate order lines against one
// availability snapshot and one cart snapshot, splitting them into lines
// that can be submitted and lines that carry an error.
package reconcile

import (
	"fmt"

	"github.com/dukerupert/quickorder/internal/domain"
	"github.com/dukerupert/quickorder/internal/pricing"
	"github.com/dukerupert/quickorder/internal/validation"
)

// Options carries store settings for a pass.
type Options struct {
	Stock validation.StockOptions
}

// Lines runs the stock and quantity rules over lines in input order.
//
// Quantities accumulate across the batch: a line is checked against what
// the cart already holds plus every earlier line in the batch that passed.
// Rejected lines do not count toward later lines. Min/max accumulate per
// product/variant. Stock accumulates per product/variant, or per product
// when the product tracks one shared inventory level for all variants.
func Lines(lines []domain.OrderLine, catalog Catalog, cart domain.CartSnapshot, opts Options) domain.Reconciliation {
	result := domain.Reconciliation{
		Valid:  make([]domain.OrderLine, 0, len(lines)),
		Errors: make([]domain.LineError, 0),
	}
	ordered := make(map[domain.LineKey]int)
	demand := make(map[domain.LineKey]int)

	for _, line := range lines {
		if line.Quantity < 1 {
			result.Errors = append(result.Errors, domain.LineError{
				Line: line,
				Outcome: domain.Outcome{
					Reason:  domain.ReasonGeneric,
					Message: "Quantity must be greater than 0",
					SKU:     line.SKU,
				},
			})
			continue
		}

		product, ok := catalog.Resolve(line)
		if !ok {
			result.Errors = append(result.Errors, domain.LineError{Line: line, Outcome: NotFound(line)})
			continue
		}

		key := product.Key()
		stockKey := StockKey(product)
		pending := ordered[key]

		outcome := validation.Stock(product, demand[stockKey]+line.Quantity, opts.Stock)
		if outcome.Valid() {
			outcome = validation.Quantity(
				product.SKU,
				line.Quantity,
				cart.QuantityFor(key)+pending,
				product.OrderQuantityMinimum,
				product.OrderQuantityMaximum,
			)
		}

		if !outcome.Valid() {
			result.Errors = append(result.Errors, domain.LineError{Line: line, Outcome: outcome})
			continue
		}

		ordered[key] = pending + line.Quantity
		demand[stockKey] += line.Quantity
		result.Valid = append(result.Valid, Resolve(line, product))
	}

	return result
}

// StockKey is the inventory pool a product draws from. Product-tracked
// variants share one pool.
func StockKey(product domain.ProductAvailability) domain.LineKey {
	if product.TrackingMode == domain.TrackingProduct {
		return domain.LineKey{ProductID: product.ProductID}
	}
	return product.Key()
}

// Resolve rewrites line with the authoritative identifiers and prices
// from product.
func Resolve(line domain.OrderLine, product domain.ProductAvailability) domain.OrderLine {
	line.ProductID = product.ProductID
	line.VariantID = product.VariantID
	if product.SKU != "" {
		line.SKU = product.SKU
	}
	return pricing.Reprice(line, product)
}

// NotFound is the outcome for a line the search did not return.
func NotFound(line domain.OrderLine) domain.Outcome {
	ref := line.SKU
	if ref == "" {
		ref = fmt.Sprintf("product %d", line.ProductID)
		if line.VariantID != 0 {
			ref = fmt.Sprintf("product %d variant %d", line.ProductID, line.VariantID)
		}
	}
	return domain.Outcome{
		Reason:  domain.ReasonNotFound,
		Message: fmt.Sprintf("SKU %s were not found, please check entered values", ref),
		SKU:     line.SKU,
	}
}
