package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/segment-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	weights_file   TEXT NOT NULL,
	source         TEXT NOT NULL,
	supplier_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_suppliers (
	run_id              TEXT NOT NULL REFERENCES runs(id),
	supplier_id         TEXT NOT NULL,
	business_unit       TEXT NOT NULL,
	annual_spend        REAL NOT NULL,
	sole_source_parts   INTEGER NOT NULL,
	single_source_parts INTEGER NOT NULL,
	multi_source_parts  INTEGER NOT NULL,
	ramp_time_months    REAL NOT NULL,
	partnership_score   INTEGER NOT NULL,
	innovation_score    INTEGER NOT NULL,
	supply_risk_score   INTEGER NOT NULL,
	score               REAL NOT NULL,
	classification      TEXT NOT NULL,
	PRIMARY KEY (run_id, supplier_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
CREATE INDEX IF NOT EXISTS idx_run_suppliers_run_id ON run_suppliers(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, rows []model.ScoredSupplier) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.SupplierCount = len(rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save run")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, weights_file, source, supplier_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.WeightsFile, run.Source, run.SupplierCount,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_suppliers
		 (run_id, supplier_id, business_unit, annual_spend, sole_source_parts, single_source_parts,
		  multi_source_parts, ramp_time_months, partnership_score, innovation_score, supply_risk_score,
		  score, classification)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert supplier")
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx,
			run.ID, r.ID, r.BusinessUnit, r.AnnualSpend,
			r.SoleSourceParts, r.SingleSourceParts, r.MultiSourceParts,
			r.RampTimeMonths, r.Partnership, r.Innovation, r.SupplyRisk,
			r.Score, string(r.Segment),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert supplier %s", r.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, weights_file, source, supplier_count FROM runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.CreatedAt, &r.WeightsFile, &r.Source, &r.SupplierCount)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, created_at, weights_file, source, supplier_count FROM runs WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.WeightsFile, &r.Source, &r.SupplierCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetRunSuppliers(ctx context.Context, runID string) ([]model.ScoredSupplier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT supplier_id, business_unit, annual_spend, sole_source_parts, single_source_parts,
		        multi_source_parts, ramp_time_months, partnership_score, innovation_score,
		        supply_risk_score, score, classification
		 FROM run_suppliers WHERE run_id = ? ORDER BY supplier_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run suppliers %s", runID)
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
			return nil, eris.Wrap(err, "sqlite: scan run supplier")
		}
		r.Segment = model.Segment(segment)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get run suppliers iterate")
}
