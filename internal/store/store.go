// Package store persists classification runs so past results can be
// listed and re-analyzed without recomputing.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/segment-cli/internal/model"
)

// Run records one classification run: what was scored, with which weights
// file, and when.
type Run struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	WeightsFile   string    `json:"weights_file"`
	Source        string    `json:"source"`
	SupplierCount int       `json:"supplier_count"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for classification runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run, rows []model.ScoredSupplier) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	GetRunSuppliers(ctx context.Context, runID string) ([]model.ScoredSupplier, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
