// Package invoice extracts the coarse header fields of an invoice — vendor,
// invoice number and date — from raw OCR text. It shares the number
// primitives with the VAT engine but works off its own labels.
package invoice

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/solvi-app/vatscan/internal/vat"
)

// ParsedInvoice is the secondary, coarser extraction accompanying a
// VAT record. Every field is optional; absence is a normal outcome.
type ParsedInvoice struct {
	Vendor        *string          `json:"vendor,omitempty"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	VAT           *decimal.Decimal `json:"vat,omitempty"`
}

var (
	reInvoiceNo = regexp.MustCompile(`(?i)(?:reikningur|reikningsnr|invoice|faktura|rechnung|facture|factura|fattura|bill)[^\S\n]*(?:no\.?|nr\.?|nbr\.?|number|#|:)?[^\S\n]*#?[^\S\n]*([A-Z0-9][A-Z0-9/-]{2,})`)

	reDateDMY = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)
	reDateYMD = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)

	// lines that cannot be a vendor name
	reVendorNoise = regexp.MustCompile(`(?i)^(reikningur|invoice|receipt|kvittun|faktura|rechnung|tel|sími|fax|www\.|http)`)
	reMostlyDigit = regexp.MustCompile(`^[\d\s.,:/-]+$`)

	titleCaser = cases.Title(language.Und)
)

// Parse extracts the header fields and copies the money figures from an
// already-computed VAT extraction so the two records always agree.
func Parse(text string, x vat.Extraction) ParsedInvoice {
	out := ParsedInvoice{}

	lines := strings.Split(text, "\n")
	if v := vendor(lines); v != "" {
		out.Vendor = &v
	}
	if n := invoiceNumber(text); n != "" {
		out.InvoiceNumber = &n
	}
	if d, ok := date(text); ok {
		out.Date = &d
	}
	if x.Total != nil {
		a := x.Total.Amount
		out.Amount = &a
	}
	if x.Tax != nil {
		v := x.Tax.Amount
		out.VAT = &v
	}
	return out
}

// vendor takes the first line that looks like a name: not empty, not a label,
// not numbers/punctuation. ALL-CAPS shop headers get title-cased.
func vendor(lines []string) string {
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if l == "" || len(l) < 3 {
			continue
		}
		if reVendorNoise.MatchString(l) || reMostlyDigit.MatchString(l) {
			continue
		}
		if l == strings.ToUpper(l) && l != strings.ToLower(l) {
			return titleCaser.String(strings.ToLower(l))
		}
		return l
	}
	return ""
}

func invoiceNumber(text string) string {
	m := reInvoiceNo.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], "/-")
}

// date tries day-first forms (the European convention on these receipts)
// before ISO. An impossible day/month combination is simply skipped.
func date(text string) (time.Time, bool) {
	for _, m := range reDateDMY.FindAllStringSubmatch(text, -1) {
		if t, err := time.Parse("2-1-2006", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			return t, true
		}
	}
	for _, m := range reDateYMD.FindAllStringSubmatch(text, -1) {
		if t, err := time.Parse("2006-1-2", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
