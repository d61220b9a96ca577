package vat

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/solvi-app/vatscan/internal/numparse"
	"github.com/solvi-app/vatscan/internal/terms"
)

// Many receipts print the VAT breakdown as an explicit table: a header row
// ("Vsk% Vsk Nettó Upphæð") followed by one row per rate. Those lines must
// be parsed as columns and excluded from the generic line scan, or amounts
// appearing in several columns get counted twice.

var (
	// rate% tax net total
	reRow4 = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*%?\s+(\d[\d.,]*)\s+(\d[\d.,]*)\s+(\d[\d.,]*)\s*$`)
	// rate% tax net (total derived as tax+net)
	reRow3 = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*%?\s+(\d[\d.,]*)\s+(\d[\d.,]*)\s*$`)
)

type tableResult struct {
	subtotal  *decimal.Decimal
	tax       *decimal.Decimal
	total     *decimal.Decimal
	breakdown map[string]decimal.Decimal
	consumed  LineRange
}

// extractTable finds and parses a columnar VAT breakdown. Returns nil when
// the text has no recognizable table header or no parseable row follows it.
func extractTable(lines []string, dict terms.Dictionary) *tableResult {
	header := -1
	for i, line := range lines {
		if isTableHeader(line, dict) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil
	}

	res := &tableResult{breakdown: map[string]decimal.Decimal{}}
	var accNet, accTax, accTotal decimal.Decimal

	end := header + 1
	for ; end < len(lines); end++ {
		rate, tax, net, total, ok := parseTableRow(lines[end])
		if !ok {
			break // end of table
		}
		key := RateKey(rate)
		res.breakdown[key] = res.breakdown[key].Add(tax)
		accNet = accNet.Add(net)
		accTax = accTax.Add(tax)
		accTotal = accTotal.Add(total)
	}
	if end == header+1 {
		return nil // header with no rows is not a table
	}

	if accNet.IsPositive() {
		res.subtotal = &accNet
	}
	if accTax.IsPositive() {
		res.tax = &accTax
	}
	if accTotal.IsPositive() {
		res.total = &accTotal
	}
	res.consumed = LineRange{Start: header, End: end}
	return res
}

// isTableHeader requires a VAT-percent indicator, a net-amount indicator and
// a total/sum indicator on the same line.
func isTableHeader(line string, dict terms.Dictionary) bool {
	if !strings.Contains(line, "%") {
		return false
	}
	return terms.MatchAny(line, dict.VAT) &&
		terms.MatchAny(line, dict.Subtotal) &&
		terms.MatchAny(line, dict.Total)
}

func parseTableRow(line string) (rate, tax, net, total decimal.Decimal, ok bool) {
	if m := reRow4.FindStringSubmatch(line); m != nil {
		rate, okR := numparse.NormalizePercent(m[1])
		tax, okT := numparse.Normalize(m[2])
		net, okN := numparse.Normalize(m[3])
		total, okG := numparse.Normalize(m[4])
		if okR && okT && okN && okG {
			return rate, tax, net, total, true
		}
	}
	if m := reRow3.FindStringSubmatch(line); m != nil {
		rate, okR := numparse.NormalizePercent(m[1])
		tax, okT := numparse.Normalize(m[2])
		net, okN := numparse.Normalize(m[3])
		if okR && okT && okN {
			return rate, tax, net, tax.Add(net), true
		}
	}
	return decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, false
}
