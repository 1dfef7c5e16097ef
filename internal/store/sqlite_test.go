package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/segment-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func classifiedRows() []model.ScoredSupplier {
	return []model.ScoredSupplier{
		{
			Supplier: model.Supplier{
				ID: "SUP_0001", BusinessUnit: "Business_Unit_A",
				AnnualSpend: 500, SoleSourceParts: 4,
				RampTimeMonths: 24, Partnership: 3, Innovation: 3, SupplyRisk: 1,
			},
			Score:   93.33,
			Segment: model.SegmentStrategic,
		},
		{
			Supplier: model.Supplier{
				ID: "SUP_0002", BusinessUnit: "Business_Unit_B",
				AnnualSpend: 1, MultiSourceParts: 9,
				RampTimeMonths: 3, Partnership: 1, Innovation: 1, SupplyRisk: 3,
			},
			Score:   14.24,
			Segment: model.SegmentTransactional,
		},
	}
}

func TestSQLiteStore_SaveAndGetRun(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run := &Run{WeightsFile: "weights.yaml", Source: "suppliers.csv"}
	require.NoError(t, s.SaveRun(ctx, run, classifiedRows()))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 2, run.SupplierCount)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "weights.yaml", got.WeightsFile)
	assert.Equal(t, "suppliers.csv", got.Source)
	assert.Equal(t, 2, got.SupplierCount)
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_GetRunSuppliers(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run := &Run{WeightsFile: "weights.yaml", Source: "suppliers.csv"}
	rows := classifiedRows()
	require.NoError(t, s.SaveRun(ctx, run, rows))

	got, err := s.GetRunSuppliers(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SUP_0001", got[0].ID)
	assert.InDelta(t, rows[0].Score, got[0].Score, 1e-9)
	assert.Equal(t, model.SegmentStrategic, got[0].Segment)
	assert.Equal(t, 9, got[1].MultiSourceParts)
	assert.Equal(t, model.SegmentTransactional, got[1].Segment)
}

func TestSQLiteStore_SaveRunDuplicateSupplierRollsBack(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rows := classifiedRows()
	rows[1].ID = rows[0].ID

	run := &Run{WeightsFile: "weights.yaml", Source: "suppliers.csv"}
	require.Error(t, s.SaveRun(ctx, run, rows))

	// The transaction must leave no partial run behind.
	_, err := s.GetRun(ctx, run.ID)
	require.Error(t, err)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, source := range []string{"a.csv", "b.csv", "a.csv"} {
		run := &Run{WeightsFile: "weights.yaml", Source: source}
		require.NoError(t, s.SaveRun(ctx, run, classifiedRows()))
	}

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := s.ListRuns(ctx, RunFilter{Source: "a.csv"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpenSQLite(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(context.Background()))
}
