package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRecord is a scanned invoice for data transfer between layers.
// Money fields are nil when the parsers could not find them.
type InvoiceRecord struct {
	ID               uuid.UUID                  `json:"id"`
	Vendor           *string                    `json:"vendor,omitempty"`
	InvoiceNumber    *string                    `json:"invoice_number,omitempty"`
	InvoiceDate      *time.Time                 `json:"invoice_date,omitempty"`
	CurrencyCode     string                     `json:"currency_code"`
	Net              *decimal.Decimal           `json:"net,omitempty"`
	Tax              *decimal.Decimal           `json:"tax,omitempty"`
	Total            *decimal.Decimal           `json:"total,omitempty"`
	RateBreakdown    map[string]decimal.Decimal `json:"rate_breakdown"`
	DetectedLanguage string                     `json:"detected_language,omitempty"`
	DetectedCountry  string                     `json:"detected_country,omitempty"`
	SourceEngine     string                     `json:"source_engine,omitempty"`
	Confidence       float32                    `json:"confidence"`
	ImagePath        string                     `json:"image_path,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}
