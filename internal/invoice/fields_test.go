package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvi-app/vatscan/internal/vat"
)

func extraction(total, tax string) vat.Extraction {
	x := vat.Extraction{}
	if total != "" {
		x.Total = &vat.CurrencyAmount{Amount: decimal.RequireFromString(total), Currency: "ISK", Confidence: vat.ConfidenceLine}
	}
	if tax != "" {
		x.Tax = &vat.CurrencyAmount{Amount: decimal.RequireFromString(tax), Currency: "ISK", Confidence: vat.ConfidenceLine}
	}
	return x
}

func TestParseHeaderFields(t *testing.T) {
	text := "Bakaríið Brauð & Co ehf.\nReikningur nr. 1234\nDags. 12.03.2025\nSamtals 39.254 kr."

	got := Parse(text, extraction("39254", "7598"))

	require.NotNil(t, got.Vendor)
	assert.Equal(t, "Bakaríið Brauð & Co ehf.", *got.Vendor)

	require.NotNil(t, got.InvoiceNumber)
	assert.Equal(t, "1234", *got.InvoiceNumber)

	require.NotNil(t, got.Date)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), *got.Date)

	require.NotNil(t, got.Amount)
	assert.Equal(t, "39254", got.Amount.String())
	require.NotNil(t, got.VAT)
	assert.Equal(t, "7598", got.VAT.String())
}

func TestParseVendorTitleCasesAllCaps(t *testing.T) {
	got := Parse("KRÓNAN EHF\nSamtals 1.000", extraction("", ""))
	require.NotNil(t, got.Vendor)
	assert.Equal(t, "Krónan Ehf", *got.Vendor)
}

func TestParseVendorSkipsNoiseLines(t *testing.T) {
	got := Parse("Reikningur\n12.03.2025\nSími 555-1234\nKaffihúsið Mokka\n", extraction("", ""))
	require.NotNil(t, got.Vendor)
	assert.Equal(t, "Kaffihúsið Mokka", *got.Vendor)
}

func TestParseISODate(t *testing.T) {
	got := Parse("Invoice 2025-03-12", extraction("", ""))
	require.NotNil(t, got.Date)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), *got.Date)
}

func TestParseNothing(t *testing.T) {
	got := Parse("", extraction("", ""))
	assert.Nil(t, got.Vendor)
	assert.Nil(t, got.InvoiceNumber)
	assert.Nil(t, got.Date)
	assert.Nil(t, got.Amount)
	assert.Nil(t, got.VAT)
}
