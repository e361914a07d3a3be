package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
)

const (
	schemaSQL = `
CREATE TABLE IF NOT EXISTS rainfall_logs (
    id     UUID PRIMARY KEY,
    ts     BIGINT NOT NULL,
    amount DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS rainfall_logs_ts_idx ON rainfall_logs (ts);
CREATE TABLE IF NOT EXISTS rainfall_daily_totals (
    date_key   TEXT PRIMARY KEY,
    total      DOUBLE PRECISION NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	insertReadingSQL = `INSERT INTO rainfall_logs (id, ts, amount) VALUES ($1, $2, $3)`

	rangeReadingsSQL = `SELECT id, ts, amount FROM rainfall_logs WHERE ts >= $1 AND ts < $2 ORDER BY ts, id`

	upsertTotalSQL = `INSERT INTO rainfall_daily_totals (date_key, total, updated_at) VALUES ($1, $2, now())
ON CONFLICT (date_key) DO UPDATE SET total = EXCLUDED.total, updated_at = EXCLUDED.updated_at`

	selectTotalSQL = `SELECT total FROM rainfall_daily_totals WHERE date_key = $1`
)

// Store implements the reading log and daily total table on PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to dsn, verifies the connection and creates the tables if
// they do not exist.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := New(db)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the reading and daily total tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres ensure schema: %w", err)
	}
	return nil
}

// AppendReading inserts r with a new UUID primary key.
func (s *Store) AppendReading(ctx context.Context, r domain.Reading) (domain.Reading, error) {
	r.ID = uuid.NewString()
	if _, err := s.db.ExecContext(ctx, insertReadingSQL, r.ID, r.Timestamp, r.Amount); err != nil {
		return domain.Reading{}, fmt.Errorf("postgres append reading: %w", err)
	}
	return r, nil
}

// QueryReadings returns readings with startMs <= ts < endMs in timestamp
// order. A NULL amount is returned as nil.
func (s *Store) QueryReadings(ctx context.Context, startMs, endMs int64) ([]domain.RawReading, error) {
	rows, err := s.db.QueryContext(ctx, rangeReadingsSQL, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("postgres range readings: %w", err)
	}
	defer rows.Close()

	var out []domain.RawReading
	for rows.Next() {
		var (
			r      domain.RawReading
			amount sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &amount); err != nil {
			return nil, fmt.Errorf("postgres scan reading: %w", err)
		}
		if amount.Valid {
			r.Amount = amount.Float64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres range readings: %w", err)
	}
	return out, nil
}

// SaveDailyTotal upserts the total for dt.DateKey.
func (s *Store) SaveDailyTotal(ctx context.Context, dt domain.DailyTotal) error {
	if _, err := s.db.ExecContext(ctx, upsertTotalSQL, dt.DateKey, dt.Total); err != nil {
		return fmt.Errorf("postgres save daily total: %w", err)
	}
	return nil
}

// DailyTotal returns the stored total for dateKey, or domain.ErrNotFound.
func (s *Store) DailyTotal(ctx context.Context, dateKey string) (domain.DailyTotal, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, selectTotalSQL, dateKey).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DailyTotal{}, fmt.Errorf("daily total %s: %w", dateKey, domain.ErrNotFound)
	}
	if err != nil {
		return domain.DailyTotal{}, fmt.Errorf("postgres get daily total: %w", err)
	}
	return domain.DailyTotal{DateKey: dateKey, Total: total}, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
