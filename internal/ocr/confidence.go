package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}[./-]\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	reCurr   = regexp.MustCompile(`\b(isk|kr|usd|eur|gbp|dkk|nok|sek)\b|[$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}([.,]\d{3})*[.,]\d{2}\b|\b\d+[.,]\d{2}\b`)
)

// heuristicConfidence scores text by how much it looks like a receipt:
// date-ish, currency-ish and amount-ish fragments each add a little. Used for
// engines that report no confidence of their own.
func heuristicConfidence(txt string) float32 {
	lower := strings.ToLower(txt)
	score := float32(0.2)
	if reDate.MatchString(lower) {
		score += 0.2
	}
	if reCurr.MatchString(lower) {
		score += 0.15
	}
	if reAmount.MatchString(lower) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
