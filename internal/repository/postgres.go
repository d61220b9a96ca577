package repository

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solvi-app/vatscan/internal/common"
	"github.com/solvi-app/vatscan/internal/entity"
)

type PostgresConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// PostgresStore keeps invoices in a Postgres table via a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates the pool and makes sure the schema exists.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("repository.connecting", "driver", "postgres")

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("repository.connect.failed", "error", err)
		return nil, common.WrapError(err, "parse postgres dsn")
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "vatscan"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("repository.connect.failed", "error", err)
		return nil, common.WrapError(err, "connect postgres")
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, common.WrapError(err, "ensure postgres schema")
	}
	logger.Info("repository.connected", "driver", "postgres")
	return s, nil
}

func (s *PostgresStore) Close() {
	s.logger.Info("repository.closing", "driver", "postgres")
	s.pool.Close()
}

// HealthCheck pings the pool to catch DSN issues early.
func (s *PostgresStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS invoices (
	id                UUID PRIMARY KEY,
	vendor            TEXT,
	invoice_number    TEXT,
	invoice_date      DATE,
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
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
)`)
	return err
}

const pgColumns = `id, vendor, invoice_number, invoice_date, currency_code,
	net, tax, total, rate_breakdown, detected_language, detected_country,
	source_engine, confidence, image_path, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, rec *entity.InvoiceRecord) error {
	breakdown, err := breakdownToJSON(rec.RateBreakdown)
	if err != nil {
		return err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	_, err = s.pool.Exec(ctx, `INSERT INTO invoices (`+pgColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rec.ID, rec.Vendor, rec.InvoiceNumber, rec.InvoiceDate, rec.CurrencyCode,
		decToString(rec.Net), decToString(rec.Tax), decToString(rec.Total), breakdown,
		rec.DetectedLanguage, rec.DetectedCountry, rec.SourceEngine, rec.Confidence,
		rec.ImagePath, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		s.logger.Error("repository.create.failed", "id", rec.ID, "error", err)
	}
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.InvoiceRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM invoices WHERE id = $1`, id)
	rec, err := scanPgInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*entity.InvoiceRecord, error) {
	q := `SELECT ` + pgColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	if f.From != nil {
		args = append(args, *f.From)
		q += ` AND invoice_date >= $` + itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += ` AND invoice_date <= $` + itoa(len(args))
	}
	if f.Vendor != "" {
		args = append(args, "%"+f.Vendor+"%")
		q += ` AND vendor ILIKE $` + itoa(len(args))
	}
	q += ` ORDER BY invoice_date NULLS LAST, created_at`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		s.logger.Error("repository.list.failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.InvoiceRecord
	for rows.Next() {
		rec, err := scanPgInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, rec *entity.InvoiceRecord) error {
	breakdown, err := breakdownToJSON(rec.RateBreakdown)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, `UPDATE invoices SET
		vendor=$2, invoice_number=$3, invoice_date=$4, currency_code=$5,
		net=$6, tax=$7, total=$8, rate_breakdown=$9,
		detected_language=$10, detected_country=$11, source_engine=$12,
		confidence=$13, image_path=$14, updated_at=$15
		WHERE id=$1`,
		rec.ID, rec.Vendor, rec.InvoiceNumber, rec.InvoiceDate, rec.CurrencyCode,
		decToString(rec.Net), decToString(rec.Tax), decToString(rec.Total), breakdown,
		rec.DetectedLanguage, rec.DetectedCountry, rec.SourceEngine,
		rec.Confidence, rec.ImagePath, rec.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPgInvoice(row pgx.Row) (*entity.InvoiceRecord, error) {
	var rec entity.InvoiceRecord
	var net, tax, total *string
	var breakdown string
	if err := row.Scan(&rec.ID, &rec.Vendor, &rec.InvoiceNumber, &rec.InvoiceDate,
		&rec.CurrencyCode, &net, &tax, &total, &breakdown,
		&rec.DetectedLanguage, &rec.DetectedCountry, &rec.SourceEngine,
		&rec.Confidence, &rec.ImagePath, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Net, rec.Tax, rec.Total = stringToDec(net), stringToDec(tax), stringToDec(total)
	var err error
	rec.RateBreakdown, err = breakdownFromJSON(breakdown)
	return &rec, err
}

func itoa(n int) string { return strconv.Itoa(n) }
