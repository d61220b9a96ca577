// Package terms holds the per-language VAT vocabulary, the currency table and
// the country VAT-rate table consulted by the extraction layers. The built-in
// set covers the supported locales; additional languages can be merged in from
// JSON dictionary files at startup without code changes.
package terms

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Dictionary is the vocabulary for one language.
type Dictionary struct {
	Language string   `json:"language"`
	Country  string   `json:"country"`
	VAT      []string `json:"vat_terms"`
	Total    []string `json:"total_terms"`
	Subtotal []string `json:"subtotal_terms"`
}

// Set is the full, immutable term database. Built once at startup and safe
// for concurrent readers.
type Set struct {
	dicts        map[string]Dictionary
	currencies   map[string]string
	countryRates map[string][]decimal.Decimal
}

// DefaultLanguage is used whenever detection finds nothing.
const DefaultLanguage = "en"

// DefaultCurrency is used when no currency indicator appears in the text.
const DefaultCurrency = "EUR"

func rates(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// DefaultSet returns the built-in term database.
func DefaultSet() *Set {
	s := &Set{
		dicts: map[string]Dictionary{},
		currencies: map[string]string{
			"kr": "ISK", "kr.": "ISK", "isk": "ISK",
			"dkk": "DKK", "nok": "NOK", "sek": "SEK",
			"€": "EUR", "eur": "EUR",
			"$": "USD", "usd": "USD",
			"£": "GBP", "gbp": "GBP",
			"chf": "CHF",
		},
		countryRates: map[string][]decimal.Decimal{
			"IS": rates("24", "11", "0"),
			"DE": rates("19", "7", "0"),
			"DK": rates("25", "0"),
			"NO": rates("25", "15", "12", "0"),
			"SE": rates("25", "12", "6", "0"),
			"FR": rates("20", "10", "5.5", "2.1", "0"),
			"ES": rates("21", "10", "4", "0"),
			"IT": rates("22", "10", "5", "4", "0"),
			"GB": rates("20", "5", "0"),
		},
	}
	for _, d := range builtinDictionaries {
		s.dicts[d.Language] = d
	}
	return s
}

var builtinDictionaries = []Dictionary{
	{
		Language: "is", Country: "IS",
		VAT:      []string{"vsk", "vsk.", "virðisaukaskattur", "vsk-upphæð"},
		Total:    []string{"samtals", "til greiðslu", "heild", "heildarupphæð", "alls", "upphæð"},
		Subtotal: []string{"án vsk", "nettó", "verð án vsk", "samtals án vsk"},
	},
	{
		Language: "en", Country: "GB",
		VAT:      []string{"vat", "tax", "sales tax", "vat amount", "tax amount"},
		Total:    []string{"total", "amount due", "grand total", "balance due", "total due", "amount"},
		Subtotal: []string{"subtotal", "sub total", "net", "net amount", "excl. vat", "ex vat"},
	},
	{
		Language: "da", Country: "DK",
		VAT:      []string{"moms", "momsbeløb"},
		Total:    []string{"i alt", "total", "at betale", "beløb"},
		Subtotal: []string{"subtotal", "ekskl. moms", "netto", "uden moms"},
	},
	{
		Language: "no", Country: "NO",
		VAT:      []string{"mva", "merverdiavgift", "mva-beløp"},
		Total:    []string{"totalt", "å betale", "sum", "beløp"},
		Subtotal: []string{"eks. mva", "netto", "uten mva"},
	},
	{
		Language: "sv", Country: "SE",
		VAT:      []string{"moms", "mervärdesskatt", "momsbelopp"},
		Total:    []string{"summa", "att betala", "totalt", "belopp"},
		Subtotal: []string{"exkl. moms", "netto", "utan moms"},
	},
	{
		Language: "de", Country: "DE",
		VAT:      []string{"mwst", "mwst.", "ust", "ust.", "mehrwertsteuer", "steuerbetrag"},
		Total:    []string{"gesamt", "summe", "gesamtbetrag", "zu zahlen", "betrag"},
		Subtotal: []string{"netto", "zwischensumme", "nettobetrag"},
	},
	{
		Language: "fr", Country: "FR",
		VAT:      []string{"tva", "montant tva"},
		Total:    []string{"total", "total ttc", "montant dû", "à payer", "montant"},
		Subtotal: []string{"total ht", "sous-total", "hors taxes"},
	},
	{
		Language: "es", Country: "ES",
		VAT:      []string{"iva", "importe iva"},
		Total:    []string{"total", "importe total", "a pagar", "importe"},
		Subtotal: []string{"subtotal", "base imponible", "neto", "sin iva"},
	},
	{
		Language: "it", Country: "IT",
		VAT:      []string{"iva", "imposta", "importo iva"},
		Total:    []string{"totale", "importo totale", "da pagare", "importo"},
		Subtotal: []string{"subtotale", "imponibile", "netto", "senza iva"},
	},
}

// Lookup returns the dictionary for a language code.
func (s *Set) Lookup(lang string) (Dictionary, bool) {
	d, ok := s.dicts[lang]
	return d, ok
}

// Effective returns the working vocabulary for a detected language: its own
// terms first, with the default-language terms appended as a fallback so a
// misdetected (or undetected) language still finds the common labels.
func (s *Set) Effective(lang string) Dictionary {
	def := s.dicts[DefaultLanguage]
	if lang == "" || lang == DefaultLanguage {
		return def
	}
	d, ok := s.dicts[lang]
	if !ok {
		return def
	}
	return Dictionary{
		Language: d.Language,
		Country:  d.Country,
		VAT:      appendUnique(d.VAT, def.VAT),
		Total:    appendUnique(d.Total, def.Total),
		Subtotal: appendUnique(d.Subtotal, def.Subtotal),
	}
}

// Country maps a language code to its primary country code, or "".
func (s *Set) Country(lang string) string {
	if d, ok := s.dicts[lang]; ok {
		return d.Country
	}
	return ""
}

// CommonRates returns the standard VAT rates for a country, most common
// first. Unknown countries get no seed rates.
func (s *Set) CommonRates(country string) []decimal.Decimal {
	return s.countryRates[country]
}

// Languages lists the registered language codes in sorted order.
func (s *Set) Languages() []string {
	out := make([]string, 0, len(s.dicts))
	for l := range s.dicts {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func appendUnique(primary, fallback []string) []string {
	seen := make(map[string]struct{}, len(primary))
	out := make([]string, 0, len(primary)+len(fallback))
	for _, t := range primary {
		seen[strings.ToLower(t)] = struct{}{}
		out = append(out, t)
	}
	for _, t := range fallback {
		if _, dup := seen[strings.ToLower(t)]; !dup {
			out = append(out, t)
		}
	}
	return out
}

// --- whole-word matching ---------------------------------------------------

// MatchAny reports whether any of the terms occurs as a whole word in s,
// case-insensitively.
func MatchAny(s string, terms []string) bool {
	ls := strings.ToLower(s)
	for _, t := range terms {
		if Count(ls, t) > 0 {
			return true
		}
	}
	return false
}

// Count returns the number of whole-word occurrences of term in s. A word
// boundary is any rune that is neither a Unicode letter nor a digit; regexp
// \b is ASCII-only and breaks on þ/æ/ö/ð, so the scan is done by hand.
func Count(s, term string) int {
	ls := strings.ToLower(s)
	lt := strings.ToLower(term)
	if lt == "" {
		return 0
	}
	n, off := 0, 0
	for {
		i := strings.Index(ls[off:], lt)
		if i < 0 {
			return n
		}
		start := off + i
		end := start + len(lt)
		if boundaryBefore(ls, start) && boundaryAfter(ls, end) {
			n++
		}
		off = end
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
