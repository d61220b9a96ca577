package vat

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/solvi-app/vatscan/internal/terms"
)

// Config holds the engine's tunable thresholds. The defaults mirror the
// behavior observed on Icelandic receipts; none of them is sacred.
type Config struct {
	// TaxTailRatio bounds the per-rate tax token relative to the largest
	// token after a percent sign. Empirical; default 0.6.
	TaxTailRatio decimal.Decimal

	// Implausibility correction: a tax below MinPlausibleTax or above
	// MaxTaxShare of the total is treated as an OCR misread whenever the
	// total exceeds CorrectionMinTotal; it is then recomputed from
	// AssumedRatePercent.
	CorrectionMinTotal decimal.Decimal
	MinPlausibleTax    decimal.Decimal
	MaxTaxShare        decimal.Decimal
	AssumedRatePercent decimal.Decimal
}

// DefaultConfig returns the standard thresholds (24% is the dominant
// Icelandic VAT rate).
func DefaultConfig() Config {
	return Config{
		TaxTailRatio:       decimal.RequireFromString("0.6"),
		CorrectionMinTotal: decimal.RequireFromString("100"),
		MinPlausibleTax:    decimal.RequireFromString("10"),
		MaxTaxShare:        decimal.RequireFromString("0.5"),
		AssumedRatePercent: decimal.RequireFromString("24"),
	}
}

// Engine is the stateless extraction pipeline: table pass, line pass,
// reconciliation. It holds only the immutable term database and thresholds,
// so a single instance is safe for concurrent use.
type Engine struct {
	terms  *terms.Set
	cfg    Config
	logger *slog.Logger
}

func NewEngine(set *terms.Set, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.TaxTailRatio.IsZero() {
		cfg.TaxTailRatio = def.TaxTailRatio
	}
	if cfg.CorrectionMinTotal.IsZero() {
		cfg.CorrectionMinTotal = def.CorrectionMinTotal
	}
	if cfg.MinPlausibleTax.IsZero() {
		cfg.MinPlausibleTax = def.MinPlausibleTax
	}
	if cfg.MaxTaxShare.IsZero() {
		cfg.MaxTaxShare = def.MaxTaxShare
	}
	if cfg.AssumedRatePercent.IsZero() {
		cfg.AssumedRatePercent = def.AssumedRatePercent
	}
	return &Engine{terms: set, cfg: cfg, logger: logger}
}

// Parse extracts a financial record from raw OCR text. It is total: any
// input, including the empty string, yields an Extraction — absent fields
// are a normal outcome, never an error.
func (e *Engine) Parse(text string) Extraction {
	lang, currency := e.terms.Detect(text)
	country := e.terms.Country(lang)
	dict := e.terms.Effective(lang)

	lines := strings.Split(text, "\n")

	table := extractTable(lines, dict)
	var exclude *LineRange
	if table != nil {
		exclude = &table.consumed
	}
	lineRes := extractLines(lines, exclude, dict, e.terms.CommonRates(country), e.cfg.TaxTailRatio)

	return e.reconcile(table, lineRes, currency, lang, country)
}
