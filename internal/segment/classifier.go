// Package segment assigns ordinal segment labels by score percentile.
package segment

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/segment-cli/internal/model"
	"github.com/sells-group/segment-cli/internal/weights"
)

// ErrEmptyDataset is returned when classification is requested on zero rows;
// percentile rank is undefined for an empty table.
var ErrEmptyDataset = eris.New("segment: empty dataset")

// Classifier buckets scored suppliers into segments using an ordered
// threshold table.
type Classifier struct {
	thresholds []weights.Threshold
}

// New builds a Classifier from a threshold table. The table is validated
// and ordered from highest minimum percentile to lowest.
func New(thresholds []weights.Threshold) (*Classifier, error) {
	if len(thresholds) == 0 {
		return nil, eris.New("segment: empty threshold table")
	}

	ordered := make([]weights.Threshold, len(thresholds))
	copy(ordered, thresholds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinPercentile > ordered[j].MinPercentile
	})
	if last := ordered[len(ordered)-1]; last.MinPercentile != 0 {
		return nil, eris.Errorf("segment: lowest threshold %q must have min_percentile 0", last.Segment)
	}

	return &Classifier{thresholds: ordered}, nil
}

// Classify assigns a segment to every row in place. Labeling is a
// whole-table operation: each row's percentile rank depends on the complete
// set of scores, so the scoring phase must have finished before this runs.
func (c *Classifier) Classify(rows []model.ScoredSupplier) error {
	if len(rows) == 0 {
		return ErrEmptyDataset
	}

	scores := make([]float64, len(rows))
	for i := range rows {
		scores[i] = rows[i].Score
	}
	percentiles := Percentiles(scores)

	counts := make(map[model.Segment]int, len(c.thresholds))
	for i := range rows {
		rows[i].Segment = c.segmentFor(percentiles[i])
		counts[rows[i].Segment]++
	}

	fields := make([]zap.Field, 0, len(c.thresholds)+1)
	fields = append(fields, zap.Int("suppliers", len(rows)))
	for _, th := range c.thresholds {
		fields = append(fields, zap.Int(string(th.Segment), counts[th.Segment]))
	}
	zap.L().Info("segment: classification complete", fields...)

	return nil
}

// segmentFor returns the first threshold, highest minimum first, that the
// percentile meets or exceeds.
func (c *Classifier) segmentFor(percentile float64) model.Segment {
	for _, th := range c.thresholds {
		if percentile >= th.MinPercentile {
			return th.Segment
		}
	}
	// Unreachable: New guarantees a zero-percentile floor.
	return c.thresholds[len(c.thresholds)-1].Segment
}

// Rank returns the strategic rank of a label under this classifier's
// threshold table: higher means more strategic, 0 means unknown.
func (c *Classifier) Rank(s model.Segment) int {
	for i, th := range c.thresholds {
		if th.Segment == s {
			return len(c.thresholds) - i
		}
	}
	return 0
}

// Percentiles computes each score's inclusive percentile rank: the fraction
// of the table with score <= the given score, times 100. Tied scores get
// identical percentiles, and the maximum score is always at the 100th.
//
// The reference formulation compares every pair of scores; sorting once and
// binary-searching each score's upper bound gives the same ranks in
// O(n log n).
func Percentiles(scores []float64) []float64 {
	n := len(scores)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	out := make([]float64, n)
	for i, s := range scores {
		// Count of elements <= s.
		rank := sort.Search(n, func(j int) bool { return sorted[j] > s })
		out[i] = float64(rank) / float64(n) * 100
	}
	return out
}
