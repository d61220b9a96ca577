package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/solvi-app/vatscan/internal/common"
	"github.com/solvi-app/vatscan/internal/entity"
)

// SQLiteStore keeps invoices in a local SQLite file. It backs the one-shot
// CLI and the tests; no CGO, no server.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database and ensures the schema.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time; also keeps ":memory:" from getting a fresh
	// database per pooled connection
	db.SetMaxOpenConns(1)
	// the driver opens lazily; fail now rather than on first insert
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "ping sqlite database")
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "ensure sqlite schema")
	}
	logger.Info("repository.connected", "driver", "sqlite", "path", path)
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS invoices (
	id                TEXT PRIMARY KEY,
	vendor            TEXT,
	invoice_number    TEXT,
	invoice_date      TEXT,
	currency_code     TEXT NOT NULL,
	net               TEXT,
	tax               TEXT,
	total             TEXT,
	rate_breakdown    TEXT NOT NULL DEFAULT '{}',
	detected_language TEXT NOT NULL DEFAULT '',
	detected_country  TEXT NOT NULL DEFAULT '',
	source_engine     TEXT NOT NULL DEFAULT '',
	confidence        REAL NOT NULL DEFAULT 0,
	image_path        TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
)`)
	return err
}

const sqliteColumns = `id, vendor, invoice_number, invoice_date, currency_code,
	net, tax, total, rate_breakdown, detected_language, detected_country,
	source_engine, confidence, image_path, created_at, updated_at`

const dateLayout = "2006-01-02"

func (s *SQLiteStore) Create(ctx context.Context, rec *entity.InvoiceRecord) error {
	breakdown, err := breakdownToJSON(rec.RateBreakdown)
	if err != nil {
		return err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	_, err = s.db.ExecContext(ctx, `INSERT INTO invoices (`+sqliteColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID.String(), rec.Vendor, rec.InvoiceNumber, dateToString(rec.InvoiceDate),
		rec.CurrencyCode, decToString(rec.Net), decToString(rec.Tax), decToString(rec.Total),
		breakdown, rec.DetectedLanguage, rec.DetectedCountry, rec.SourceEngine,
		rec.Confidence, rec.ImagePath,
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("repository.create.failed", "id", rec.ID, "error", err)
	}
	return err
}

func (s *SQLiteStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.InvoiceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM invoices WHERE id = ?`, id.String())
	rec, err := scanSQLiteInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*entity.InvoiceRecord, error) {
	q := `SELECT ` + sqliteColumns + ` FROM invoices WHERE 1=1`
	var args []any
	if f.From != nil {
		q += ` AND invoice_date >= ?`
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		q += ` AND invoice_date <= ?`
		args = append(args, f.To.Format(dateLayout))
	}
	if f.Vendor != "" {
		q += ` AND vendor LIKE ?`
		args = append(args, "%"+f.Vendor+"%")
	}
	q += ` ORDER BY invoice_date IS NULL, invoice_date, created_at`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logger.Error("repository.list.failed", "error", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.InvoiceRecord
	for rows.Next() {
		rec, err := scanSQLiteInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Update(ctx context.Context, rec *entity.InvoiceRecord) error {
	breakdown, err := breakdownToJSON(rec.RateBreakdown)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `UPDATE invoices SET
		vendor=?, invoice_number=?, invoice_date=?, currency_code=?,
		net=?, tax=?, total=?, rate_breakdown=?,
		detected_language=?, detected_country=?, source_engine=?,
		confidence=?, image_path=?, updated_at=?
		WHERE id=?`,
		rec.Vendor, rec.InvoiceNumber, dateToString(rec.InvoiceDate), rec.CurrencyCode,
		decToString(rec.Net), decToString(rec.Tax), decToString(rec.Total), breakdown,
		rec.DetectedLanguage, rec.DetectedCountry, rec.SourceEngine,
		rec.Confidence, rec.ImagePath, rec.UpdatedAt.Format(time.RFC3339Nano),
		rec.ID.String())
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteInvoice(row rowScanner) (*entity.InvoiceRecord, error) {
	var rec entity.InvoiceRecord
	var id, breakdown, createdAt, updatedAt string
	var vendor, number, date, net, tax, total sql.NullString

	if err := row.Scan(&id, &vendor, &number, &date, &rec.CurrencyCode,
		&net, &tax, &total, &breakdown,
		&rec.DetectedLanguage, &rec.DetectedCountry, &rec.SourceEngine,
		&rec.Confidence, &rec.ImagePath, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	rec.Vendor = nullToString(vendor)
	rec.InvoiceNumber = nullToString(number)
	if date.Valid && date.String != "" {
		if t, err := time.Parse(dateLayout, date.String); err == nil {
			rec.InvoiceDate = &t
		}
	}
	rec.Net, rec.Tax, rec.Total = stringToDec(nullToString(net)),
		stringToDec(nullToString(tax)), stringToDec(nullToString(total))
	if rec.RateBreakdown, err = breakdownFromJSON(breakdown); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func nullToString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func dateToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
