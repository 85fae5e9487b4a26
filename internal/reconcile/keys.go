package reconcile

import (
	"strings"

	"github.com/dukerupert/quickorder/internal/domain"
)

// Keys is the deduplicated set of references one batch search must cover.
type Keys struct {
	ProductIDs []int64
	SKUs       []string
}

// Empty reports whether there is nothing to search for.
func (k Keys) Empty() bool {
	return len(k.ProductIDs) == 0 && len(k.SKUs) == 0
}

// LookupKeys collects product IDs from lines that carry one and SKUs from
// lines that only carry a SKU. First-seen order is kept.
func LookupKeys(lines []domain.OrderLine) Keys {
	var keys Keys
	seenProducts := make(map[int64]struct{})
	seenSKUs := make(map[string]struct{})

	for _, line := range lines {
		if line.ProductID != 0 {
			if _, ok := seenProducts[line.ProductID]; !ok {
				seenProducts[line.ProductID] = struct{}{}
				keys.ProductIDs = append(keys.ProductIDs, line.ProductID)
			}
			continue
		}

		sku := strings.TrimSpace(line.SKU)
		if sku == "" {
			continue
		}
		norm := normalizeSKU(sku)
		if _, ok := seenSKUs[norm]; !ok {
			seenSKUs[norm] = struct{}{}
			keys.SKUs = append(keys.SKUs, sku)
		}
	}

	return keys
}
