// Package validation holds the per-line purchase rules: cumulative
// minimum/maximum order quantities and stock/purchasability checks.
package validation

import (
	"fmt"

	"github.com/dukerupert/quickorder/internal/domain"
)

// Quantity checks the cumulative quantity (already in the cart plus newly
// requested) against a product's order quantity bounds. A bound of zero
// means the product has no such limit.
func Quantity(sku string, requested, existingCartQty, minQty, maxQty int) domain.Outcome {
	cumulative := existingCartQty + requested

	if minQty > 0 && cumulative < minQty {
		return domain.Outcome{
			Reason:  domain.ReasonBelowMinimum,
			Message: fmt.Sprintf("You need to purchase a minimum of %d of %s per order.", minQty, sku),
			SKU:     sku,
		}
	}

	if maxQty > 0 && cumulative > maxQty {
		return domain.Outcome{
			Reason:  domain.ReasonAboveMaximum,
			Message: fmt.Sprintf("You can only purchase a maximum of %d of %s per order.", maxQty, sku),
			SKU:     sku,
		}
	}

	return domain.ValidOutcome(sku)
}
