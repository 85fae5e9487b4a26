package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER LINE TYPES
// =============================================================================

// LineSource identifies which storefront flow produced a line.
type LineSource string

const (
	LineSourceManual       LineSource = "manual"
	LineSourceCSV          LineSource = "csv"
	LineSourceQuote        LineSource = "quote"
	LineSourceShoppingList LineSource = "shopping_list"
)

// OrderLine is a candidate line on its way to the cart or a quote draft.
// Lines that only carry a SKU (CSV rows) get their product and variant IDs
// filled in once reconciliation resolves them.
type OrderLine struct {
	ID            string          `json:"id"`
	ProductID     int64           `json:"product_id"`
	VariantID     int64           `json:"variant_id"`
	SKU           string          `json:"sku"`
	Quantity      int             `json:"quantity"`
	UnitBasePrice decimal.Decimal `json:"unit_base_price"`
	UnitTax       decimal.Decimal `json:"unit_tax"`

	// SourceRow is the 1-based CSV data row; zero for other sources.
	SourceRow int        `json:"source_row,omitempty"`
	Source    LineSource `json:"source"`
}

// Key identifies the product/variant pair quantities accumulate against.
func (l OrderLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantID: l.VariantID}
}

// LineKey is the unit quantities are summed over when enforcing
// cumulative minimum and maximum rules.
type LineKey struct {
	ProductID int64
	VariantID int64
}

// =============================================================================
// AVAILABILITY TYPES
// =============================================================================

// TrackingMode is the platform's inventory granularity for a product.
type TrackingMode string

const (
	TrackingNone    TrackingMode = "none"
	TrackingProduct TrackingMode = "product"
	TrackingVariant TrackingMode = "variant"
)

// ParseTrackingMode maps the platform's value onto a TrackingMode. Unknown
// values are treated as untracked.
func ParseTrackingMode(s string) TrackingMode {
	switch TrackingMode(strings.ToLower(strings.TrimSpace(s))) {
	case TrackingProduct:
		return TrackingProduct
	case TrackingVariant:
		return TrackingVariant
	default:
		return TrackingNone
	}
}

// ProductAvailability is a read-only snapshot of one purchasable variant,
// taken from the product search collaborator for a single reconciliation
// pass. InventoryLevel is the product-level figure when TrackingMode is
// product and the variant's own figure when it is variant.
type ProductAvailability struct {
	ProductID            int64
	VariantID            int64
	SKU                  string
	Name                 string
	TrackingMode         TrackingMode
	InventoryLevel       int
	PurchasingDisabled   bool
	OrderQuantityMinimum int
	OrderQuantityMaximum int
	BasePrice            decimal.Decimal
	TaxPrice             decimal.Decimal
}

// Key returns the product/variant pair for this snapshot.
func (p ProductAvailability) Key() LineKey {
	return LineKey{ProductID: p.ProductID, VariantID: p.VariantID}
}

// =============================================================================
// CART TYPES
// =============================================================================

// ExistingCartQuantity is a quantity already sitting in the active cart.
type ExistingCartQuantity struct {
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}

// CartSnapshot is the canonical view of the active cart used for cumulative
// quantity checks. An empty CartID means there is no cart yet.
type CartSnapshot struct {
	CartID string
	Lines  []ExistingCartQuantity
}

// QuantityFor sums every cart line for the product/variant pair.
func (c CartSnapshot) QuantityFor(key LineKey) int {
	total := 0
	for _, l := range c.Lines {
		if l.ProductID == key.ProductID && l.VariantID == key.VariantID {
			total += l.Quantity
		}
	}
	return total
}

// =============================================================================
// VALIDATION OUTCOMES
// =============================================================================

// Reason is the error taxonomy for line validation and cart submission.
type Reason string

const (
	ReasonValid          Reason = "valid"
	ReasonNotFound       Reason = "not_found"
	ReasonOutOfStock     Reason = "out_of_stock"
	ReasonDisabled       Reason = "disabled"
	ReasonBelowMinimum   Reason = "below_minimum"
	ReasonAboveMaximum   Reason = "above_maximum"
	ReasonNetworkFailure Reason = "network_failure"
	ReasonGeneric        Reason = "generic"
)

// Outcome is the verdict for one line.
type Outcome struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message,omitempty"`
	SKU     string `json:"sku"`
}

// Valid reports whether the line may be submitted.
func (o Outcome) Valid() bool {
	return o.Reason == ReasonValid
}

// ValidOutcome is the passing verdict for sku.
func ValidOutcome(sku string) Outcome {
	return Outcome{Reason: ReasonValid, SKU: sku}
}

// LineError pairs a rejected line with the reason it was rejected.
type LineError struct {
	Line    OrderLine `json:"line"`
	Outcome Outcome   `json:"outcome"`
}

// Reconciliation is the partition of one line set into submittable lines
// and rejected lines. Both halves keep input order.
type Reconciliation struct {
	Valid  []OrderLine `json:"valid"`
	Errors []LineError `json:"errors"`
}
