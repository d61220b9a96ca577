package terms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

// dictionaryFile is the on-disk shape of one loadable dictionary. Besides the
// vocabulary it may carry extra currency indicators and the country's common
// VAT rates, so a new locale needs no code change at all.
type dictionaryFile struct {
	Language   string            `json:"language"`
	Country    string            `json:"country"`
	VATTerms   []string          `json:"vat_terms"`
	Total      []string          `json:"total_terms"`
	Subtotal   []string          `json:"subtotal_terms"`
	Currencies map[string]string `json:"currencies,omitempty"`
	Rates      []string          `json:"common_rates,omitempty"`
}

// buildDictionarySchema returns the JSON Schema every dictionary file must
// satisfy, as a generic map (validated locally before merging).
func buildDictionarySchema() map[string]any {
	termList := map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    map[string]any{"type": "string", "minLength": 1},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"language":       map[string]any{"type": "string", "pattern": `^[a-z]{2}$`},
			"country":        map[string]any{"type": "string", "pattern": `^[A-Z]{2}$`},
			"vat_terms":      termList,
			"total_terms":    termList,
			"subtotal_terms": termList,
			"currencies": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string", "pattern": `^[A-Z]{3}$`},
			},
			"common_rates": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "pattern": `^\d+(\.\d+)?$`},
			},
		},
		"required": []string{"language", "country", "vat_terms", "total_terms", "subtotal_terms"},
	}
}

// validateAgainstSchema validates data against schemaMap.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("dictionary.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("dictionary.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("dictionary does not match schema: %w", err)
	}
	return nil
}

// LoadDir merges every *.json dictionary file under dir into the set. A file
// for an already-registered language replaces the built-in entry. Call before
// the set is shared; the merged set is immutable afterwards.
func (s *Set) LoadDir(dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dictionary dir: %w", err)
	}
	schemaMap := buildDictionarySchema()

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read dictionary %s: %w", e.Name(), err)
		}
		if err := validateAgainstSchema(schemaMap, data); err != nil {
			return fmt.Errorf("dictionary %s: %w", e.Name(), err)
		}
		var df dictionaryFile
		if err := json.Unmarshal(data, &df); err != nil {
			return fmt.Errorf("decode dictionary %s: %w", e.Name(), err)
		}
		s.merge(df)
		logger.Info("terms.dictionary.loaded",
			"file", e.Name(), "language", df.Language, "country", df.Country)
	}
	return nil
}

func (s *Set) merge(df dictionaryFile) {
	s.dicts[df.Language] = Dictionary{
		Language: df.Language,
		Country:  df.Country,
		VAT:      df.VATTerms,
		Total:    df.Total,
		Subtotal: df.Subtotal,
	}
	for indicator, code := range df.Currencies {
		s.currencies[strings.ToLower(indicator)] = code
	}
	if len(df.Rates) > 0 {
		rs := make([]decimal.Decimal, 0, len(df.Rates))
		for _, r := range df.Rates {
			d, err := decimal.NewFromString(r)
			if err != nil {
				continue // schema already constrains the pattern
			}
			rs = append(rs, d)
		}
		s.countryRates[df.Country] = rs
	}
}
