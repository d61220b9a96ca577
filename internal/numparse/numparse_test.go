package numparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
		ok    bool
	}{
		{"euro grouped", "1.234,56", "1234.56", true},
		{"euro grouped multi", "1.234.567,89", "1234567.89", true},
		{"decimal comma", "1234,50", "1234.5", true},
		{"decimal comma single digit", "7,5", "7.5", true},
		{"thousands dot", "31.656", "31656", true},
		{"thousands dot ambiguous", "7.598", "7598", true},
		{"thousands dot multi", "1.234.567", "1234567", true},
		{"decimal dot two digits", "39254.00", "39254", true},
		{"decimal dot", "24.5", "24.5", true},
		{"decimal dot trailing zero", "5.0", "5", true},
		{"plain integer", "7598", "7598", true},
		{"fallback mixed", "1.234,5678", "1234.5678", true},
		{"currency suffix kr", "1.234 kr.", "1234", true},
		{"currency suffix isk", "31.656 ISK", "31656", true},
		{"currency prefix euro", "€24,50", "24.5", true},
		{"currency prefix dollar", "$1234.56", "1234.56", true},
		{"non-breaking space grouping", "1 234,50", "1234.5", true},
		{"scandinavian ore dash", "100:-", "100", true},
		{"trailing dash artifact", "100-", "100", true},
		{"refund", "-100", "", false},
		{"refund with currency", "kr -100,50", "", false},
		{"empty", "", "", false},
		{"letters only", "samtals", "", false},
		{"garbage", "..,,", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.token)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestNormalizePercent(t *testing.T) {
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"24%", "24", true},
		{"24,5%", "24.5", true},
		{"5.5", "5.5", true},
		{"11 %", "11", true},
		{"-5%", "", false},
		{"vsk", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizePercent(tt.token)
		require.Equal(t, tt.ok, ok, tt.token)
		if ok {
			assert.Equal(t, tt.want, got.String(), tt.token)
		}
	}
}

func TestTokens(t *testing.T) {
	toks := Tokens("24% VSK 7.598,00 af 31.656 kr.")
	assert.Equal(t, []string{"24", "7.598,00", "31.656"}, toks)

	assert.Empty(t, Tokens("engin tala"))
}

func TestLastAmount(t *testing.T) {
	got, ok := LastAmount("Samtals til greiðslu: 39.254 kr")
	require.True(t, ok)
	assert.Equal(t, "39254", got.String())

	_, ok = LastAmount("Samtals")
	assert.False(t, ok)
}
