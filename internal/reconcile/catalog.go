package reconcile

import (
	"strings"

	"github.com/dukerupert/quickorder/internal/domain"
)

// Catalog indexes the availability rows returned by one product search so
// every line in the pass resolves against the same snapshot.
type Catalog struct {
	byVariant map[int64]domain.ProductAvailability
	byProduct map[int64][]domain.ProductAvailability
	bySKU     map[string]domain.ProductAvailability
}

// NewCatalog builds a Catalog. When two rows share a SKU the first wins.
func NewCatalog(rows []domain.ProductAvailability) Catalog {
	c := Catalog{
		byVariant: make(map[int64]domain.ProductAvailability, len(rows)),
		byProduct: make(map[int64][]domain.ProductAvailability),
		bySKU:     make(map[string]domain.ProductAvailability, len(rows)),
	}

	for _, row := range rows {
		if row.VariantID != 0 {
			if _, exists := c.byVariant[row.VariantID]; !exists {
				c.byVariant[row.VariantID] = row
			}
		}
		c.byProduct[row.ProductID] = append(c.byProduct[row.ProductID], row)
		if sku := normalizeSKU(row.SKU); sku != "" {
			if _, exists := c.bySKU[sku]; !exists {
				c.bySKU[sku] = row
			}
		}
	}

	return c
}

// Len is the number of distinct variants in the catalog.
func (c Catalog) Len() int {
	return len(c.byVariant)
}

// Resolve finds the availability row for line. A variant ID is the most
// specific reference, then the SKU, then a product ID that has exactly one
// variant. A variant ID the search did not return falls back to the SKU.
func (c Catalog) Resolve(line domain.OrderLine) (domain.ProductAvailability, bool) {
	if line.VariantID != 0 {
		row, ok := c.byVariant[line.VariantID]
		if ok && (line.ProductID == 0 || row.ProductID == line.ProductID) {
			return row, true
		}
		if normalizeSKU(line.SKU) == "" {
			return domain.ProductAvailability{}, false
		}
	}

	if sku := normalizeSKU(line.SKU); sku != "" {
		row, ok := c.bySKU[sku]
		if ok && (line.ProductID == 0 || row.ProductID == line.ProductID) {
			return row, true
		}
		return domain.ProductAvailability{}, false
	}

	if line.ProductID != 0 {
		if rows := c.byProduct[line.ProductID]; len(rows) == 1 {
			return rows[0], true
		}
	}

	return domain.ProductAvailability{}, false
}

func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
