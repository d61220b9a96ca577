package vat

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/solvi-app/vatscan/internal/numparse"
	"github.com/solvi-app/vatscan/internal/terms"
)

// The line pass scans everything the table extractor did not consume. It is
// driven by label matching with exclusion rules: "Samtals án VSK" must not be
// read as the grand total, and "VSK-upphæð" must not be read as one either.

var rePercent = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

// Labels that explicitly name the tax amount itself. A line carrying one of
// these is the strongest signal for the tax total and must never be taken as
// the receipt total.
var taxAmountLabels = []string{
	"vsk-upphæð", "vsk upphæð",
	"tax amount", "vat amount",
	"steuerbetrag", "mwst-betrag",
	"momsbeløb", "mva-beløp", "momsbelopp",
	"montant tva", "importe iva", "importo iva",
}

// Amount-word fragments for the middle priority tier. Substring matches by
// design: OCR frequently clips "upphæð" to "upph".
var amountWordFragments = []string{
	"upph", "amount", "betrag", "beløp", "belopp", "montant", "importe", "importo",
}

// Priority tiers for the unlabeled tax-total fallback. A higher tier always
// overrides a value found at a lower one.
const (
	taxPriorityNone = iota
	taxPriorityGeneric
	taxPriorityAmountWord
	taxPriorityExplicit
)

type lineResult struct {
	subtotal  *decimal.Decimal
	tax       *decimal.Decimal
	total     *decimal.Decimal
	breakdown map[string]decimal.Decimal
}

// extractLines runs the label heuristics over every line outside the
// excluded table range. commonRates seeds zero-valued breakdown entries so
// consumers always see the locale's full rate table. tailRatio is the
// plausibility bound for per-rate tax tokens (0.6 by default; empirical,
// tunable).
func extractLines(lines []string, exclude *LineRange, dict terms.Dictionary, commonRates []decimal.Decimal, tailRatio decimal.Decimal) lineResult {
	res := lineResult{breakdown: map[string]decimal.Decimal{}}
	taxPriority := taxPriorityNone

	for i, line := range lines {
		if exclude.Contains(i) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// grand total: explicit label, minus subtotal and tax-amount lookalikes
		if res.total == nil &&
			terms.MatchAny(trimmed, dict.Total) &&
			!terms.MatchAny(trimmed, dict.Subtotal) &&
			!terms.MatchAny(trimmed, taxAmountLabels) {
			if v, ok := numparse.LastAmount(trimmed); ok {
				res.total = &v
			}
		}

		// subtotal
		if res.subtotal == nil && terms.MatchAny(trimmed, dict.Subtotal) {
			if v, ok := numparse.LastAmount(trimmed); ok {
				res.subtotal = &v
			}
		}

		// per-rate tax amounts after each percent occurrence
		for _, m := range rePercent.FindAllStringSubmatchIndex(trimmed, -1) {
			rate, ok := numparse.NormalizePercent(trimmed[m[2]:m[3]])
			if !ok {
				continue
			}
			tail := trimmed[m[1]:]
			tokens := numparse.Tokens(tail)
			if len(tokens) == 0 && i+1 < len(lines) && !exclude.Contains(i+1) {
				// OCR sometimes wraps the amounts onto the following line
				tokens = numparse.Tokens(lines[i+1])
			}
			if v, ok := plausibleTax(tokens, tailRatio); ok {
				key := RateKey(rate)
				res.breakdown[key] = res.breakdown[key].Add(v)
			}
		}

		// unlabeled tax total: a tax word with no percent sign on the line
		if terms.MatchAny(trimmed, dict.VAT) && !strings.Contains(trimmed, "%") {
			p := taxPriorityGeneric
			lower := strings.ToLower(trimmed)
			switch {
			case terms.MatchAny(trimmed, taxAmountLabels):
				p = taxPriorityExplicit
			case containsAny(lower, amountWordFragments):
				p = taxPriorityAmountWord
			}
			if p > taxPriority {
				if v, ok := numparse.LastAmount(trimmed); ok {
					res.tax = &v
					taxPriority = p
				}
			}
		}
	}

	// no explicit tax total anywhere: the per-rate entries are the next best
	if taxPriority == taxPriorityNone && len(res.breakdown) > 0 {
		sum := decimal.Zero
		for _, v := range res.breakdown {
			sum = sum.Add(v)
		}
		res.tax = &sum
	}

	for _, r := range commonRates {
		key := RateKey(r)
		if _, ok := res.breakdown[key]; !ok {
			res.breakdown[key] = decimal.Zero
		}
	}
	return res
}

// plausibleTax picks the tax amount from the numeric tokens trailing a
// percent sign. The tax is normally paired with a larger net amount, so
// prefer the smallest token that is at most tailRatio of the largest; when
// the filter leaves nothing, fall back to the smallest token overall.
func plausibleTax(tokens []string, tailRatio decimal.Decimal) (decimal.Decimal, bool) {
	values := make([]decimal.Decimal, 0, len(tokens))
	for _, t := range tokens {
		if v, ok := numparse.Normalize(t); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return decimal.Zero, false
	}

	largest := values[0]
	smallest := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(largest) {
			largest = v
		}
		if v.LessThan(smallest) {
			smallest = v
		}
	}

	bound := largest.Mul(tailRatio)
	best := decimal.Zero
	found := false
	for _, v := range values {
		if v.LessThanOrEqual(bound) && (!found || v.LessThan(best)) {
			best = v
			found = true
		}
	}
	if found {
		return best, true
	}
	return smallest, true
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
