package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ScanRecord is one simulated candidate persisted for later analysis.
type ScanRecord struct {
	Start          string
	Mid            string
	End            string
	TheoreticalPct float64
	SimulatedPct   float64
	Outcome        string
	StartAmount    float64
	DetectedAt     time.Time
}

// OpportunityStore persists scan results in PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

func NewOpportunityStore(ctx context.Context, dsn string) (*OpportunityStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &OpportunityStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *OpportunityStore) migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS scan_history (
			id BIGSERIAL PRIMARY KEY,
			start_ccy TEXT NOT NULL,
			mid_ccy TEXT NOT NULL,
			end_ccy TEXT NOT NULL,
			theoretical_pct DOUBLE PRECISION NOT NULL,
			simulated_pct DOUBLE PRECISION NOT NULL,
			outcome TEXT NOT NULL,
			start_amount DOUBLE PRECISION NOT NULL,
			detected_at TIMESTAMPTZ NOT NULL
		)`
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("create scan_history: %w", err)
	}
	return nil
}

// Insert stores one scan record.
func (s *OpportunityStore) Insert(ctx context.Context, rec ScanRecord) error {
	const query = `
		INSERT INTO scan_history (
			start_ccy, mid_ccy, end_ccy,
			theoretical_pct, simulated_pct, outcome,
			start_amount, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, query,
		rec.Start, rec.Mid, rec.End,
		rec.TheoreticalPct, rec.SimulatedPct, rec.Outcome,
		rec.StartAmount, rec.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan record: %w", err)
	}
	return nil
}

// ListRecent returns the latest records, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]ScanRecord, error) {
	const query = `
		SELECT start_ccy, mid_ccy, end_ccy,
			theoretical_pct, simulated_pct, outcome,
			start_amount, detected_at
		FROM scan_history
		ORDER BY detected_at DESC
		LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list scan records: %w", err)
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		if err := rows.Scan(
			&rec.Start, &rec.Mid, &rec.End,
			&rec.TheoreticalPct, &rec.SimulatedPct, &rec.Outcome,
			&rec.StartAmount, &rec.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *OpportunityStore) Close() { s.pool.Close() }
