package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/segment-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, extracted so tests
// can substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run": `INSERT INTO runs (id, created_at, weights_file, source, supplier_count) VALUES ($1, $2, $3, $4, $5)`,
	"get_run":    `SELECT id, created_at, weights_file, source, supplier_count FROM runs WHERE id = $1`,
	"insert_run_supplier": `INSERT INTO run_suppliers
	 (run_id, supplier_id, business_unit, annual_spend, sole_source_parts, single_source_parts,
	  multi_source_parts, ramp_time_months, partnership_score, innovation_score, supply_risk_score,
	  score, classification)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	weights_file   TEXT NOT NULL,
	source         TEXT NOT NULL,
	supplier_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_suppliers (
	run_id              TEXT NOT NULL REFERENCES runs(id),
	supplier_id         TEXT NOT NULL,
	business_unit       TEXT NOT NULL,
	annual_spend        DOUBLE PRECISION NOT NULL,
	sole_source_parts   INTEGER NOT NULL,
	single_source_parts INTEGER NOT NULL,
	multi_source_parts  INTEGER NOT NULL,
	ramp_time_months    DOUBLE PRECISION NOT NULL,
	partnership_score   INTEGER NOT NULL,
	innovation_score    INTEGER NOT NULL,
	supply_risk_score   INTEGER NOT NULL,
	score               DOUBLE PRECISION NOT NULL,
	classification      TEXT NOT NULL,
	PRIMARY KEY (run_id, supplier_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
CREATE INDEX IF NOT EXISTS idx_run_suppliers_run_id ON run_suppliers(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run, rows []model.ScoredSupplier) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.SupplierCount = len(rows)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, created_at, weights_file, source, supplier_count) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.CreatedAt, run.WeightsFile, run.Source, run.SupplierCount,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	for i := range rows {
		r := &rows[i]
		_, err := s.pool.Exec(ctx,
			`INSERT INTO run_suppliers
			 (run_id, supplier_id, business_unit, annual_spend, sole_source_parts, single_source_parts,
			  multi_source_parts, ramp_time_months, partnership_score, innovation_score, supply_risk_score,
			  score, classification)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			run.ID, r.ID, r.BusinessUnit, r.AnnualSpend,
			r.SoleSourceParts, r.SingleSourceParts, r.MultiSourceParts,
			r.RampTimeMonths, r.Partnership, r.Innovation, r.SupplyRisk,
			r.Score, string(r.Segment),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert supplier %s", r.ID)
		}
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at, weights_file, source, supplier_count FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.CreatedAt, &r.WeightsFile, &r.Source, &r.SupplierCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("run not found: %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, created_at, weights_file, source, supplier_count FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.WeightsFile, &r.Source, &r.SupplierCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetRunSuppliers(ctx context.Context, runID string) ([]model.ScoredSupplier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT supplier_id, business_unit, annual_spend, sole_source_parts, single_source_parts,
		        multi_source_parts, ramp_time_months, partnership_score, innovation_score,
		        supply_risk_score, score, classification
		 FROM run_suppliers WHERE run_id = $1 ORDER BY supplier_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run suppliers %s", runID)
	}
	defer rows.Close()

	var out []model.ScoredSupplier
	for rows.Next() {
		var r model.ScoredSupplier
		var segment string
		if err := rows.Scan(
			&r.ID, &r.BusinessUnit, &r.AnnualSpend,
			&r.SoleSourceParts, &r.SingleSourceParts, &r.MultiSourceParts,
			&r.RampTimeMonths, &r.Partnership, &r.Innovation, &r.SupplyRisk,
			&r.Score, &segment,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run supplier")
		}
		r.Segment = model.Segment(segment)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: get run suppliers iterate")
}
