package vat

import (
	"github.com/shopspring/decimal"
)

// derivedTaxFloor is the tolerance for a derived tax of total − subtotal.
// Anything below it indicates a unit or label mixup, not rounding noise, and
// the derivation is suppressed.
var derivedTaxFloor = decimal.RequireFromString("-0.01")

// reconcile merges the table and line results into the final record and
// derives whichever of {subtotal, tax, total} is still missing from the
// other two. Table values win: they come from an explicit, self-consistent
// breakdown. A present value is never overwritten.
func (e *Engine) reconcile(table *tableResult, line lineResult, currency, lang, country string) Extraction {
	out := Extraction{
		DetectedLanguage: lang,
		DetectedCountry:  country,
		RateBreakdown:    map[string]decimal.Decimal{},
	}

	pick := func(tv *decimal.Decimal, lv *decimal.Decimal) *CurrencyAmount {
		if tv != nil {
			return amount(*tv, currency, ConfidenceTable)
		}
		if lv != nil {
			return amount(*lv, currency, ConfidenceLine)
		}
		return nil
	}
	if table != nil {
		out.Subtotal = pick(table.subtotal, line.subtotal)
		out.Tax = pick(table.tax, line.tax)
		out.Total = pick(table.total, line.total)
		for k, v := range table.breakdown {
			out.RateBreakdown[k] = v
		}
		for k, v := range line.breakdown {
			if _, ok := out.RateBreakdown[k]; !ok {
				out.RateBreakdown[k] = v
			}
		}
	} else {
		out.Subtotal = pick(nil, line.subtotal)
		out.Tax = pick(nil, line.tax)
		out.Total = pick(nil, line.total)
		for k, v := range line.breakdown {
			out.RateBreakdown[k] = v
		}
	}

	// fill in at most one missing component
	switch {
	case out.Tax == nil && out.Subtotal != nil && out.Total != nil:
		tax := out.Total.Amount.Sub(out.Subtotal.Amount)
		if tax.GreaterThanOrEqual(derivedTaxFloor) {
			out.Tax = amount(tax, currency, ConfidenceDerived)
		}
	case out.Subtotal == nil && out.Total != nil && out.Tax != nil:
		out.Subtotal = amount(out.Total.Amount.Sub(out.Tax.Amount), currency, ConfidenceDerived)
	case out.Total == nil && out.Subtotal != nil && out.Tax != nil:
		out.Total = amount(out.Subtotal.Amount.Add(out.Tax.Amount), currency, ConfidenceDerived)
	}

	return out
}

// CorrectImplausibleTax applies the business-rule safety net on a finished
// extraction: when the total is substantial but the tax is a tiny or wildly
// oversized fraction of it, the tax is assumed misread and recomputed from
// the configured dominant rate. Heuristic by design — callers get the
// original value in the audit log, not a correctness guarantee.
func (e *Engine) CorrectImplausibleTax(x Extraction) Extraction {
	if x.Total == nil {
		return x
	}
	total := x.Total.Amount
	if total.LessThanOrEqual(e.cfg.CorrectionMinTotal) {
		return x
	}

	tax := decimal.Zero
	if x.Tax != nil {
		tax = x.Tax.Amount
	}
	if tax.GreaterThanOrEqual(e.cfg.MinPlausibleTax) && tax.LessThanOrEqual(total.Mul(e.cfg.MaxTaxShare)) {
		return x
	}

	factor := decimal.NewFromInt(1).Add(e.cfg.AssumedRatePercent.Div(decimal.NewFromInt(100)))
	corrected := total.Sub(total.Div(factor)).Round(2)

	e.logger.Warn("reconcile.correction",
		"total", total.String(),
		"original_tax", tax.String(),
		"corrected_tax", corrected.String(),
		"assumed_rate", e.cfg.AssumedRatePercent.String(),
	)

	x.Tax = amount(corrected, x.Total.Currency, ConfidenceDerived)
	return x
}
