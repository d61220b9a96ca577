package vat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvi-app/vatscan/internal/terms"
)

func icelandicDict() terms.Dictionary {
	return terms.DefaultSet().Effective("is")
}

func TestExtractTableFourColumns(t *testing.T) {
	lines := []string{
		"Vsk% Vsk Nettó Upphæð",
		"24% 7598.00 31656.00 39254.00",
	}

	res := extractTable(lines, icelandicDict())
	require.NotNil(t, res)

	require.NotNil(t, res.tax)
	assert.Equal(t, "7598", res.tax.String())
	require.NotNil(t, res.subtotal)
	assert.Equal(t, "31656", res.subtotal.String())
	require.NotNil(t, res.total)
	assert.Equal(t, "39254", res.total.String())
	assert.Equal(t, "7598", res.breakdown["24"].String())
	assert.Equal(t, LineRange{Start: 0, End: 2}, res.consumed)
}

func TestExtractTableThreeColumnsDerivesTotal(t *testing.T) {
	lines := []string{
		"header",
		"Vsk% Vsk Nettó Upphæð",
		"24% 7.598,00 31.656,00",
		"11% 0,00 1.000,00",
		"Takk fyrir viðskiptin",
	}

	res := extractTable(lines, icelandicDict())
	require.NotNil(t, res)

	require.NotNil(t, res.total)
	assert.Equal(t, "40254", res.total.String()) // (7598+31656) + (0+1000)
	require.NotNil(t, res.subtotal)
	assert.Equal(t, "32656", res.subtotal.String())
	require.NotNil(t, res.tax)
	assert.Equal(t, "7598", res.tax.String())

	assert.Equal(t, "7598", res.breakdown["24"].String())
	assert.True(t, res.breakdown["11"].IsZero())

	// table ends at the first line failing both row patterns
	assert.Equal(t, LineRange{Start: 1, End: 4}, res.consumed)
}

func TestExtractTableAccumulatesRepeatedRates(t *testing.T) {
	lines := []string{
		"VAT% VAT Net Amount",
		"20% 10.00 50.00 60.00",
		"20% 5.00 25.00 30.00",
	}

	res := extractTable(lines, terms.DefaultSet().Effective("en"))
	require.NotNil(t, res)
	assert.Equal(t, "15", res.breakdown["20"].String())
	assert.Equal(t, "90", res.total.String())
}

func TestExtractTableNoHeader(t *testing.T) {
	lines := []string{"Samtals 39.254", "VSK 24% 7.598"}
	assert.Nil(t, extractTable(lines, icelandicDict()))
}

func TestExtractTableHeaderWithoutRows(t *testing.T) {
	lines := []string{"Vsk% Vsk Nettó Upphæð", "Takk fyrir"}
	assert.Nil(t, extractTable(lines, icelandicDict()))
}
