// Package pricing turns tax-exclusive base prices and tax amounts into the
// prices a buyer sees, following the store's tax display setting.
package pricing

import (
	"github.com/dukerupert/quickorder/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultScale is the number of decimal places used when none is configured.
const DefaultScale int32 = 2

// DisplayPrice is the unit price shown to the buyer: base plus tax when the
// store displays tax-inclusive prices, base alone otherwise.
func DisplayPrice(base, tax decimal.Decimal, taxInclusive bool) decimal.Decimal {
	if taxInclusive {
		return base.Add(tax)
	}
	return base
}

// Summary totals a set of priced lines.
type Summary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	ItemCount  int             `json:"item_count"`
	LineCount  int             `json:"line_count"`

	// TaxInclusive echoes the display mode the subtotal was computed in.
	TaxInclusive bool `json:"tax_inclusive"`
}

// Pricer applies one store's tax display mode and currency scale.
type Pricer struct {
	taxInclusive bool
	scale        int32
}

// New creates a Pricer. A negative scale falls back to DefaultScale.
func New(taxInclusive bool, scale int32) *Pricer {
	if scale < 0 {
		scale = DefaultScale
	}
	return &Pricer{taxInclusive: taxInclusive, scale: scale}
}

// TaxInclusive reports the display mode.
func (p *Pricer) TaxInclusive() bool {
	return p.taxInclusive
}

// DisplayPrice rounds the displayed unit price to the currency scale.
func (p *Pricer) DisplayPrice(base, tax decimal.Decimal) decimal.Decimal {
	return DisplayPrice(base, tax, p.taxInclusive).Round(p.scale)
}

// LineTotal is the displayed unit price times the quantity.
func (p *Pricer) LineTotal(line domain.OrderLine) decimal.Decimal {
	unit := DisplayPrice(line.UnitBasePrice, line.UnitTax, p.taxInclusive)
	return unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(p.scale)
}

// Summarize totals lines. Tax is always reported separately; it is only
// added to the grand total when the subtotal was computed tax-exclusive.
func (p *Pricer) Summarize(lines []domain.OrderLine) Summary {
	s := Summary{
		Subtotal:     decimal.Zero,
		Tax:          decimal.Zero,
		TaxInclusive: p.taxInclusive,
		LineCount:    len(lines),
	}

	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		s.Subtotal = s.Subtotal.Add(p.LineTotal(line))
		s.Tax = s.Tax.Add(line.UnitTax.Mul(qty))
		s.ItemCount += line.Quantity
	}

	s.Tax = s.Tax.Round(p.scale)
	if p.taxInclusive {
		s.GrandTotal = s.Subtotal
	} else {
		s.GrandTotal = s.Subtotal.Add(s.Tax)
	}

	return s
}

// Reprice copies the authoritative prices from a search snapshot onto line.
func Reprice(line domain.OrderLine, product domain.ProductAvailability) domain.OrderLine {
	line.UnitBasePrice = product.BasePrice
	line.UnitTax = product.TaxPrice
	return line
}
