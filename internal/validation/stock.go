package validation

import (
	"fmt"

	"github.com/dukerupert/quickorder/internal/domain"
)

// StockOptions carries store settings that relax the stock check.
type StockOptions struct {
	// AllowUnavailable accepts out-of-stock and purchasing-disabled
	// variants so they can be backordered.
	AllowUnavailable bool
}

// Stock decides whether requested units of product can be bought.
// A disabled variant is rejected before inventory is looked at.
func Stock(product domain.ProductAvailability, requested int, opts StockOptions) domain.Outcome {
	if opts.AllowUnavailable {
		return domain.ValidOutcome(product.SKU)
	}

	if product.PurchasingDisabled {
		return domain.Outcome{
			Reason:  domain.ReasonDisabled,
			Message: fmt.Sprintf("%s is not available for purchase.", displayName(product)),
			SKU:     product.SKU,
		}
	}

	switch product.TrackingMode {
	case domain.TrackingProduct, domain.TrackingVariant:
		if requested > product.InventoryLevel {
			return domain.Outcome{
				Reason:  domain.ReasonOutOfStock,
				Message: fmt.Sprintf("%s does not have enough stock, please change the quantity.", displayName(product)),
				SKU:     product.SKU,
			}
		}
	}

	return domain.ValidOutcome(product.SKU)
}

func displayName(product domain.ProductAvailability) string {
	if product.Name == "" {
		return product.SKU
	}
	return fmt.Sprintf("%s (%s)", product.Name, product.SKU)
}
