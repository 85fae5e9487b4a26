package reconcile_test

import (
	"testing"

	"github.com/dukerupert/quickorder/internal/domain"
	"github.com/dukerupert/quickorder/internal/reconcile"
	"github.com/stretchr/testify/assert"
)

func TestCatalog_Resolve(t *testing.T) {
	catalog := reconcile.NewCatalog([]domain.ProductAvailability{
		availability(1, 11, "SHIRT-S"),
		availability(1, 12, "SHIRT-M"),
		availability(2, 21, "POSTER"),
	})

	tests := []struct {
		name        string
		line        domain.OrderLine
		wantOK      bool
		wantVariant int64
	}{
		{"by variant id", domain.OrderLine{ProductID: 1, VariantID: 12}, true, 12},
		{"variant id with wrong product", domain.OrderLine{ProductID: 2, VariantID: 12}, false, 0},
		{"unknown variant", domain.OrderLine{VariantID: 99}, false, 0},
		{"unknown variant falls back to sku", domain.OrderLine{VariantID: 99, SKU: "shirt-m"}, true, 12},
		{"unknown variant with unknown sku", domain.OrderLine{VariantID: 99, SKU: "HAT"}, false, 0},
		{"variant id wins over sku", domain.OrderLine{VariantID: 11, SKU: "SHIRT-M"}, true, 11},
		{"by sku", domain.OrderLine{SKU: "SHIRT-S"}, true, 11},
		{"sku is case and space insensitive", domain.OrderLine{SKU: "  shirt-m "}, true, 12},
		{"sku with mismatched product", domain.OrderLine{ProductID: 2, SKU: "SHIRT-M"}, false, 0},
		{"single variant product", domain.OrderLine{ProductID: 2}, true, 21},
		{"multi variant product is ambiguous", domain.OrderLine{ProductID: 1}, false, 0},
		{"no reference", domain.OrderLine{}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := catalog.Resolve(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantVariant, got.VariantID)
			}
		})
	}

	assert.Equal(t, 3, catalog.Len())
}

func TestNewCatalog_FirstDuplicateSKUWins(t *testing.T) {
	catalog := reconcile.NewCatalog([]domain.ProductAvailability{
		availability(1, 11, "DUP"),
		availability(2, 21, "dup"),
	})

	got, ok := catalog.Resolve(domain.OrderLine{SKU: "DUP"})
	assert.True(t, ok)
	assert.Equal(t, int64(11), got.VariantID)
}

func TestLookupKeys(t *testing.T) {
	lines := []domain.OrderLine{
		{ProductID: 5, VariantID: 51},
		{SKU: "abc"},
		{ProductID: 5, VariantID: 52},
		{SKU: " ABC "},
		{SKU: "XYZ"},
		{ProductID: 3, SKU: "ignored-when-product-known"},
		{SKU: "   "},
	}

	keys := reconcile.LookupKeys(lines)

	assert.Equal(t, []int64{5, 3}, keys.ProductIDs)
	assert.Equal(t, []string{"abc", "XYZ"}, keys.SKUs)
	assert.False(t, keys.Empty())
	assert.True(t, reconcile.LookupKeys(nil).Empty())
}
