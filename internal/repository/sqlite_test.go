package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvi-app/vatscan/internal/entity"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(vendor string, date time.Time) *entity.InvoiceRecord {
	v := vendor
	net := decimal.RequireFromString("31656")
	tax := decimal.RequireFromString("7598")
	total := decimal.RequireFromString("39254")
	return &entity.InvoiceRecord{
		Vendor:        &v,
		InvoiceDate:   &date,
		CurrencyCode:  "ISK",
		Net:           &net,
		Tax:           &tax,
		Total:         &total,
		RateBreakdown: map[string]decimal.Decimal{"24": tax},
		SourceEngine:  "tesseract",
		Confidence:    0.7,
	}
}

func TestSQLiteCreateGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("Krónan ehf", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Create(ctx, rec))
	require.NotEqual(t, uuid.Nil, rec.ID)

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, "Krónan ehf", *got.Vendor)
	assert.Equal(t, "ISK", got.CurrencyCode)
	assert.True(t, rec.Total.Equal(*got.Total))
	assert.True(t, rec.Net.Equal(*got.Net))
	assert.Equal(t, "2025-03-12", got.InvoiceDate.Format("2006-01-02"))
	require.Contains(t, got.RateBreakdown, "24")
	assert.True(t, got.RateBreakdown["24"].Equal(decimal.RequireFromString("7598")))
}

func TestSQLiteGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	march := sampleRecord("Krónan ehf", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	april := sampleRecord("Mokka kaffi", time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Create(ctx, march))
	require.NoError(t, s.Create(ctx, april))

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// ordered by invoice date
	assert.Equal(t, march.ID, all[0].ID)

	from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	later, err := s.List(ctx, Filter{From: &from})
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, april.ID, later[0].ID)

	byVendor, err := s.List(ctx, Filter{Vendor: "Mokka"})
	require.NoError(t, err)
	require.Len(t, byVendor, 1)
	assert.Equal(t, "Mokka kaffi", *byVendor[0].Vendor)
}

func TestSQLiteUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("Krónan ehf", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Create(ctx, rec))

	corrected := decimal.RequireFromString("7597.55")
	rec.Tax = &corrected
	require.NoError(t, s.Update(ctx, rec))

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "7597.55", got.Tax.String())

	missing := sampleRecord("ghost", time.Now())
	missing.ID = uuid.New()
	assert.ErrorIs(t, s.Update(ctx, missing), ErrNotFound)
}

func TestSQLiteDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("Krónan ehf", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Create(ctx, rec))

	require.NoError(t, s.Delete(ctx, rec.ID))
	_, err := s.GetByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrNotFound)
}
