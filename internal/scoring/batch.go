package scoring

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/segment-cli/internal/model"
	"github.com/sells-group/segment-cli/internal/weights"
)

// Options controls batch scoring behavior.
type Options struct {
	// Lenient collects per-record errors and scores the valid subset
	// instead of failing the whole batch on the first bad row.
	Lenient bool
	// Workers is the number of concurrent scoring goroutines.
	// Zero means GOMAXPROCS.
	Workers int
}

// RecordError pairs a rejected supplier with the reason it was rejected.
type RecordError struct {
	SupplierID string
	Err        error
}

// ScoreAll scores every supplier in the table. Rows are independent, so the
// work is fanned out across workers; results keep input order. In strict
// mode (the default) the first invalid record fails the batch. In lenient
// mode invalid records are returned as RecordErrors and only the valid
// subset is scored.
func ScoreAll(ctx context.Context, suppliers []model.Supplier, cfg *weights.Config, opts Options) ([]model.ScoredSupplier, []RecordError, error) {
	if cfg == nil {
		return nil, nil, eris.New("scoring: nil weights config")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(suppliers) && len(suppliers) > 0 {
		workers = len(suppliers)
	}

	scores := make([]float64, len(suppliers))
	rowErrs := make([]error, len(suppliers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range suppliers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := &suppliers[i]
			w, ok := cfg.ForUnit(s.BusinessUnit)
			if !ok {
				rowErrs[i] = &model.ConfigurationError{SupplierID: s.ID, BusinessUnit: s.BusinessUnit}
			} else if score, err := Score(s, w); err != nil {
				rowErrs[i] = err
			} else {
				scores[i] = score
			}
			if rowErrs[i] != nil && !opts.Lenient {
				return rowErrs[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "scoring: batch")
	}

	var scored []model.ScoredSupplier
	var recordErrs []RecordError
	for i := range suppliers {
		if rowErrs[i] != nil {
			recordErrs = append(recordErrs, RecordError{SupplierID: suppliers[i].ID, Err: rowErrs[i]})
			continue
		}
		scored = append(scored, model.ScoredSupplier{Supplier: suppliers[i], Score: scores[i]})
	}

	if len(recordErrs) > 0 {
		zap.L().Warn("scoring: rejected records",
			zap.Int("rejected", len(recordErrs)),
			zap.Int("scored", len(scored)),
		)
	}

	return scored, recordErrs, nil
}
