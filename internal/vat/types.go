// Package vat reconstructs a consistent financial record — subtotal, tax,
// total and per-rate tax breakdown — from raw, noisy OCR text. The pipeline
// is pure and stateless: a structured table pass, a line-heuristic pass, and
// a reconciliation step that derives whichever of the three figures is
// missing from the other two.
package vat

import (
	"github.com/shopspring/decimal"
)

// CurrencyAmount is one parsed monetary value with provenance. Immutable
// once constructed.
type CurrencyAmount struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Confidence float32         `json:"confidence"`
}

// Extraction is the primary output of the engine. Any field may be absent;
// the engine is total over arbitrary UTF-8 input. When subtotal, tax and
// total are all present, reconciliation keeps total ≈ subtotal + tax within
// ±0.01. RateBreakdown maps a canonical rate string (e.g. "24", "5.5") to
// the tax amount charged at that rate; summing to Tax is advisory only,
// because OCR noise can violate it.
type Extraction struct {
	Subtotal *CurrencyAmount `json:"subtotal,omitempty"`
	Tax      *CurrencyAmount `json:"tax,omitempty"`
	Total    *CurrencyAmount `json:"total,omitempty"`

	RateBreakdown map[string]decimal.Decimal `json:"rate_breakdown"`

	DetectedLanguage string `json:"detected_language,omitempty"`
	DetectedCountry  string `json:"detected_country,omitempty"`
}

// Confidence levels attached to amounts by provenance. A self-consistent
// table row is worth more than a label match, which is worth more than a
// value derived during reconciliation.
const (
	ConfidenceTable   float32 = 0.9
	ConfidenceLine    float32 = 0.7
	ConfidenceDerived float32 = 0.6
)

// RateKey canonicalizes a VAT rate for use as a breakdown key ("24.0" and
// "24" must bucket together).
func RateKey(rate decimal.Decimal) string {
	return rate.String()
}

// LineRange marks a half-open [Start, End) run of input lines consumed by
// the table extractor, so the line pass does not double-count them.
type LineRange struct {
	Start, End int
}

// Contains reports whether line index i falls inside the range.
func (r *LineRange) Contains(i int) bool {
	return r != nil && i >= r.Start && i < r.End
}

func amount(v decimal.Decimal, currency string, conf float32) *CurrencyAmount {
	return &CurrencyAmount{Amount: v, Currency: currency, Confidence: conf}
}
