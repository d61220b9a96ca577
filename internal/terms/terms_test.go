package terms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSetLanguages(t *testing.T) {
	s := DefaultSet()
	langs := s.Languages()
	assert.Contains(t, langs, "is")
	assert.Contains(t, langs, "en")
	assert.Contains(t, langs, "de")

	d, ok := s.Lookup("is")
	require.True(t, ok)
	assert.Equal(t, "IS", d.Country)
	assert.Contains(t, d.VAT, "vsk")
}

func TestEffectiveFallsBackToDefault(t *testing.T) {
	s := DefaultSet()

	d := s.Effective("is")
	assert.Equal(t, "is", d.Language)
	// Icelandic terms come first, English fallback terms are appended.
	assert.Contains(t, d.Total, "samtals")
	assert.Contains(t, d.Total, "amount due")

	// unknown and empty languages resolve to the default dictionary
	assert.Equal(t, s.Effective(""), s.Effective("xx"))
	assert.Equal(t, DefaultLanguage, s.Effective("").Language)
}

func TestCommonRates(t *testing.T) {
	s := DefaultSet()
	is := s.CommonRates("IS")
	require.Len(t, is, 3)
	assert.Equal(t, "24", is[0].String())
	assert.Equal(t, "11", is[1].String())

	assert.Empty(t, s.CommonRates("ZZ"))
}

func TestCountWholeWord(t *testing.T) {
	assert.Equal(t, 2, Count("VSK 24% og vsk 11%", "vsk"))
	assert.Equal(t, 1, Count("vsk-upphæð 7.598", "vsk-upphæð"))
	// substring occurrences do not count
	assert.Equal(t, 0, Count("virðisaukaskattur", "vsk"))
	assert.Equal(t, 1, Count("nettó: 31.656", "nettó"))
	// non-ASCII boundary runes are still boundaries
	assert.Equal(t, 0, Count("netto", "nettó"))
}

func TestMatchAny(t *testing.T) {
	assert.True(t, MatchAny("Samtals til greiðslu 39.254", []string{"til greiðslu"}))
	assert.False(t, MatchAny("Samtals til greiðslu 39.254", []string{"subtotal", "netto"}))
}
