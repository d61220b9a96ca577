// Package repository persists invoice records. Two backends implement the
// same interface: Postgres for the service deployment and SQLite for
// single-user and test setups.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solvi-app/vatscan/internal/common"
	"github.com/solvi-app/vatscan/internal/entity"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = common.ErrNotFound

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	From   *time.Time
	To     *time.Time
	Vendor string
}

type InvoiceRepository interface {
	Create(ctx context.Context, rec *entity.InvoiceRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.InvoiceRecord, error)
	List(ctx context.Context, f Filter) ([]*entity.InvoiceRecord, error)
	Update(ctx context.Context, rec *entity.InvoiceRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// decimal columns are stored as text so both backends keep exact values

func decToString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func stringToDec(s *string) *decimal.Decimal {
	if s == nil || *s == "" {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil
	}
	return &d
}

func breakdownToJSON(m map[string]decimal.Decimal) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func breakdownFromJSON(s string) (map[string]decimal.Decimal, error) {
	m := map[string]decimal.Decimal{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
