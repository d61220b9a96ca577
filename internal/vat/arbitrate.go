package vat

import (
	"github.com/shopspring/decimal"
)

// Candidate pairs one OCR engine's extraction with that engine's reported
// mean confidence for the run.
type Candidate struct {
	Extraction       Extraction
	EngineConfidence float32
}

// Arbitrate merges the extractions of two independent OCR engines,
// field by field: a present value beats an absent one; between two present
// values the higher field confidence wins, then the higher engine
// confidence. Remaining ties resolve on the value itself, so the result
// never depends on argument order.
func Arbitrate(a, b Candidate) Extraction {
	sub, _ := pickAmount(a.Extraction.Subtotal, b.Extraction.Subtotal, a.EngineConfidence, b.EngineConfidence)
	tax, taxSide := pickAmount(a.Extraction.Tax, b.Extraction.Tax, a.EngineConfidence, b.EngineConfidence)
	total, _ := pickAmount(a.Extraction.Total, b.Extraction.Total, a.EngineConfidence, b.EngineConfidence)

	out := Extraction{
		Subtotal:      sub,
		Tax:           tax,
		Total:         total,
		RateBreakdown: map[string]decimal.Decimal{},
	}

	// The breakdown follows the tax winner; the loser only fills in rates the
	// winner never saw. With no winner, union the two taking the larger
	// entry per rate — commutative either way.
	switch taxSide {
	case sideA:
		mergeBreakdown(out.RateBreakdown, a.Extraction.RateBreakdown, b.Extraction.RateBreakdown)
	case sideB:
		mergeBreakdown(out.RateBreakdown, b.Extraction.RateBreakdown, a.Extraction.RateBreakdown)
	default:
		for k, v := range a.Extraction.RateBreakdown {
			out.RateBreakdown[k] = v
		}
		for k, v := range b.Extraction.RateBreakdown {
			if cur, ok := out.RateBreakdown[k]; !ok || v.GreaterThan(cur) {
				out.RateBreakdown[k] = v
			}
		}
	}

	meta := pickMeta(a, b)
	out.DetectedLanguage = meta.DetectedLanguage
	out.DetectedCountry = meta.DetectedCountry
	return out
}

const (
	sideTie = iota
	sideA
	sideB
)

func mergeBreakdown(dst, primary, secondary map[string]decimal.Decimal) {
	for k, v := range primary {
		dst[k] = v
	}
	for k, v := range secondary {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

func pickAmount(av, bv *CurrencyAmount, aConf, bConf float32) (*CurrencyAmount, int) {
	switch {
	case av == nil && bv == nil:
		return nil, sideTie
	case av == nil:
		return bv, sideB
	case bv == nil:
		return av, sideA
	case av.Confidence != bv.Confidence:
		if av.Confidence > bv.Confidence {
			return av, sideA
		}
		return bv, sideB
	case aConf != bConf:
		if aConf > bConf {
			return av, sideA
		}
		return bv, sideB
	case !av.Amount.Equal(bv.Amount):
		// deterministic tie-break independent of argument order
		if av.Amount.GreaterThan(bv.Amount) {
			return av, sideA
		}
		return bv, sideB
	default:
		return av, sideTie
	}
}

func pickMeta(a, b Candidate) Extraction {
	al, bl := a.Extraction.DetectedLanguage, b.Extraction.DetectedLanguage
	switch {
	case al == "" && bl != "":
		return b.Extraction
	case bl == "" && al != "":
		return a.Extraction
	case a.EngineConfidence != b.EngineConfidence:
		if a.EngineConfidence > b.EngineConfidence {
			return a.Extraction
		}
		return b.Extraction
	case al != bl:
		// order-independent tie-break
		if al < bl {
			return a.Extraction
		}
		return b.Extraction
	default:
		return a.Extraction
	}
}
