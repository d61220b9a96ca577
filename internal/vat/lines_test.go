package vat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvi-app/vatscan/internal/terms"
)

var testTailRatio = decimal.RequireFromString("0.6")

func extract(t *testing.T, lines []string) lineResult {
	t.Helper()
	set := terms.DefaultSet()
	return extractLines(lines, nil, set.Effective("is"), set.CommonRates("IS"), testTailRatio)
}

func TestLinesTotalLabel(t *testing.T) {
	res := extract(t, []string{
		"Afgreiðsla 12",
		"Til greiðslu 39.254 kr.",
	})
	require.NotNil(t, res.total)
	assert.Equal(t, "39254", res.total.String())
}

func TestLinesTotalExclusions(t *testing.T) {
	// "Samtals án VSK" is a subtotal, not the grand total
	res := extract(t, []string{"Samtals án VSK 31.656"})
	assert.Nil(t, res.total)
	require.NotNil(t, res.subtotal)
	assert.Equal(t, "31656", res.subtotal.String())

	// "VSK-upphæð" names the tax amount, never the total
	res = extract(t, []string{"VSK-upphæð samtals 7.598"})
	assert.Nil(t, res.total)
	require.NotNil(t, res.tax)
	assert.Equal(t, "7598", res.tax.String())
}

func TestLinesTotalTakesLastToken(t *testing.T) {
	// totals are right-aligned after codes and labels
	res := extract(t, []string{"101 Samtals 39.254"})
	require.NotNil(t, res.total)
	assert.Equal(t, "39254", res.total.String())
}

func TestLinesPerRateTaxTailFilter(t *testing.T) {
	// tax is paired with a larger net amount: pick the smallest token that is
	// at most 60% of the largest
	res := extract(t, []string{"VSK 24% 7.598 31.656"})
	assert.Equal(t, "7598", res.breakdown["24"].String())

	// exactly at the 60% bound still passes
	res = extract(t, []string{"VSK 24% 60 100"})
	assert.Equal(t, "60", res.breakdown["24"].String())

	// just above the bound: filter yields nothing, fall back to the smallest
	res = extract(t, []string{"VSK 24% 61 100"})
	assert.Equal(t, "61", res.breakdown["24"].String())

	// single token after the percent
	res = extract(t, []string{"VSK 11% 613"})
	assert.Equal(t, "613", res.breakdown["11"].String())
}

func TestLinesPerRateWrapsToNextLine(t *testing.T) {
	res := extract(t, []string{
		"VSK 24%",
		"7.598 31.656",
	})
	assert.Equal(t, "7598", res.breakdown["24"].String())
}

func TestLinesUnlabeledTaxPriority(t *testing.T) {
	// an explicit tax-amount label outranks an amount-word line, which
	// outranks a bare tax mention — regardless of line order
	res := extract(t, []string{
		"VSK 300",
		"VSK upph. 500",
		"VSK-upphæð 600",
	})
	require.NotNil(t, res.tax)
	assert.Equal(t, "600", res.tax.String())

	res = extract(t, []string{
		"VSK-upphæð 600",
		"VSK upph. 500",
		"VSK 300",
	})
	require.NotNil(t, res.tax)
	assert.Equal(t, "600", res.tax.String())
}

func TestLinesTaxFallsBackToBreakdownSum(t *testing.T) {
	res := extract(t, []string{
		"VSK 24% 7.598 31.656",
		"VSK 11% 110 1.000",
	})
	require.NotNil(t, res.tax)
	assert.Equal(t, "7708", res.tax.String())
}

func TestLinesSeedsCommonRates(t *testing.T) {
	res := extract(t, []string{"Til greiðslu 1.000 kr."})

	for _, key := range []string{"24", "11", "0"} {
		v, ok := res.breakdown[key]
		require.True(t, ok, key)
		assert.True(t, v.IsZero(), key)
	}
}

func TestLinesExcludedRangeSkipped(t *testing.T) {
	lines := []string{
		"Vsk% Vsk Nettó Upphæð",
		"24% 7598.00 31656.00 39254.00",
		"Til greiðslu 39.254",
	}
	set := terms.DefaultSet()
	res := extractLines(lines, &LineRange{Start: 0, End: 2}, set.Effective("is"), nil, testTailRatio)

	require.NotNil(t, res.total)
	assert.Equal(t, "39254", res.total.String())
	// the table rows were not rescanned
	assert.NotContains(t, res.breakdown, "24")
}

func TestLinesEmptyInput(t *testing.T) {
	res := extract(t, nil)
	assert.Nil(t, res.total)
	assert.Nil(t, res.subtotal)
	assert.Nil(t, res.tax)
}
