package terms

import (
	"sort"
	"strings"
)

// Detect scores the text against every language's VAT vocabulary and returns
// the best-matching language code plus the detected currency code.
//
// The vote is a plain whole-word frequency count: cheap, explainable, and
// good enough because a misdetection only changes which term list is tried
// first — extraction always falls back to the default-language terms.
//
// lang is "" when no language scores above zero. Currency defaults to
// DefaultCurrency when no indicator is found.
func (s *Set) Detect(text string) (lang string, currency string) {
	lt := strings.ToLower(text)

	best := 0
	// iterate in sorted order so score ties resolve deterministically
	for _, code := range s.Languages() {
		d := s.dicts[code]
		score := 0
		for _, term := range d.VAT {
			score += Count(lt, term)
		}
		if score > best {
			best = score
			lang = code
		}
	}

	currency = s.detectCurrency(lt)
	return lang, currency
}

func (s *Set) detectCurrency(lowerText string) string {
	keys := make([]string, 0, len(s.currencies))
	for k := range s.currencies {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestScore := DefaultCurrency, 0
	for _, k := range keys {
		var score int
		if isSymbol(k) {
			score = strings.Count(lowerText, k)
		} else {
			score = Count(lowerText, k)
		}
		if score > bestScore {
			bestScore = score
			best = s.currencies[k]
		}
	}
	return best
}

// isSymbol reports whether a currency key is a bare symbol rather than a
// word; symbols sit flush against digits so whole-word matching misses them.
func isSymbol(k string) bool {
	switch k {
	case "€", "$", "£":
		return true
	}
	return false
}
