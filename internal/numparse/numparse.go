// Package numparse turns numeric tokens from OCR output into decimal values.
//
// Receipts in Icelandic and most of continental Europe use '.' for thousands
// grouping and ',' for decimals, the reverse of the US convention. A naive
// ParseFloat silently yields values 1000x off, so every amount goes through
// the ordered disambiguation rules in Normalize.
package numparse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// currency words and symbols that may cling to a numeric token
	reCurrency = regexp.MustCompile(`(?i)(isk|dkk|nok|sek|eur|usd|gbp|chf|kr\.?|[€$£]|:-)`)
	reSpaces   = regexp.MustCompile(`[\s\x{00a0}\x{202f}]+`)

	reEuroGrouped  = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+,\d+$`) // 1.234,56
	reDecimalComma = regexp.MustCompile(`^\d+,\d{1,2}$`)             // 1234,50
	reThousandDot  = regexp.MustCompile(`^\d+(?:\.\d{3})+$`)         // 31.656
	reDecimalDot   = regexp.MustCompile(`^\d+\.\d{1,2}$`)            // 24.5
	reInteger      = regexp.MustCompile(`^\d+$`)                     // 7598

	reToken = regexp.MustCompile(`\d[\d.,]*`)
)

// Normalize parses a single numeric token in ambiguous locale formatting.
// Currency words, symbols and (non-breaking) spaces are stripped first.
// Returns ok=false when the cleaned token is not a finite non-negative number.
func Normalize(token string) (decimal.Decimal, bool) {
	s := clean(token)
	if s == "" {
		return decimal.Zero, false
	}

	switch {
	case reEuroGrouped.MatchString(s):
		// European thousands + decimal comma: 1.234,56 -> 1234.56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case reDecimalComma.MatchString(s):
		// decimal comma: 1234,50 -> 1234.50
		s = strings.ReplaceAll(s, ",", ".")
	case reThousandDot.MatchString(s):
		// exactly-3-digit groups after '.': thousands separator, 31.656 -> 31656
		s = strings.ReplaceAll(s, ".", "")
	case reDecimalDot.MatchString(s), reInteger.MatchString(s):
		// already unambiguous
	default:
		// best effort: assume '.' groups thousands, ',' marks decimals
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// NormalizePercent parses a percentage token. Percentages never carry
// thousands grouping, so both ',' and '.' are always decimal separators.
func NormalizePercent(token string) (decimal.Decimal, bool) {
	s := clean(strings.ReplaceAll(token, "%", ""))
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// Tokens returns the numeric-looking tokens of a line, in order. Trailing
// separators left behind by OCR ("1.234,"), are trimmed before matching.
func Tokens(line string) []string {
	raw := reToken.FindAllString(line, -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimRight(t, ".,")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// LastAmount normalizes the last numeric token on a line. Totals on receipts
// are right-aligned after labels and item codes, so the last token wins.
func LastAmount(line string) (decimal.Decimal, bool) {
	toks := Tokens(line)
	if len(toks) == 0 {
		return decimal.Zero, false
	}
	return Normalize(toks[len(toks)-1])
}

func clean(token string) string {
	s := reCurrency.ReplaceAllString(token, "")
	s = reSpaces.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ".,-")
	s = strings.TrimLeft(s, ".,")
	// a leading minus marks a refund or credit line, not a price
	if strings.HasPrefix(s, "-") {
		return ""
	}
	return s
}
