// Package analytics provides read-only aggregation queries over a
// classified supplier table.
package analytics

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/segment-cli/internal/model"
)

// ParetoResult describes the spend-concentration cutoff.
type ParetoResult struct {
	TargetPct   float64 `json:"target_pct"`
	CutoffCount int     `json:"cutoff_count"`
	CutoffPct   float64 `json:"cutoff_pct"`
	TotalSpend  float64 `json:"total_spend"`
}

// Pareto finds the smallest prefix of suppliers, sorted by descending spend,
// whose cumulative spend share first reaches or exceeds targetPct.
func Pareto(rows []model.ScoredSupplier, targetPct float64) (ParetoResult, error) {
	if len(rows) == 0 {
		return ParetoResult{}, eris.New("analytics: pareto on empty table")
	}
	if targetPct <= 0 || targetPct > 100 {
		return ParetoResult{}, eris.Errorf("analytics: pareto target out of range: %g", targetPct)
	}

	spends := make([]float64, len(rows))
	var total float64
	for i := range rows {
		spends[i] = rows[i].AnnualSpend
		total += rows[i].AnnualSpend
	}
	if total <= 0 {
		return ParetoResult{}, eris.New("analytics: pareto undefined for zero total spend")
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(spends)))

	var cumulative float64
	count := len(spends)
	for i, s := range spends {
		cumulative += s
		if cumulative/total*100 >= targetPct {
			count = i + 1
			break
		}
	}

	return ParetoResult{
		TargetPct:   targetPct,
		CutoffCount: count,
		CutoffPct:   float64(count) / float64(len(rows)) * 100,
		TotalSpend:  total,
	}, nil
}

// SegmentProfile summarizes one segment of the classified table.
type SegmentProfile struct {
	Segment            model.Segment `json:"segment"`
	Count              int           `json:"count"`
	AvgScore           float64       `json:"avg_score"`
	AvgSpend           float64       `json:"avg_spend"`
	AvgRampTime        float64       `json:"avg_ramp_time"`
	AvgPartnership     float64       `json:"avg_partnership"`
	AvgInnovation      float64       `json:"avg_innovation"`
	AvgSupplyRisk      float64       `json:"avg_supply_risk"`
	AvgSoleSourceRatio float64       `json:"avg_sole_source_ratio"`
	SpendShare         float64       `json:"spend_share"`
}

// SegmentProfiles computes per-segment means and spend shares, ordered by
// the given label order. Segments with no rows are omitted.
func SegmentProfiles(rows []model.ScoredSupplier, order []model.Segment) []SegmentProfile {
	byLabel := make(map[model.Segment]*SegmentProfile)
	var totalSpend float64
	for i := range rows {
		r := &rows[i]
		totalSpend += r.AnnualSpend
		p, ok := byLabel[r.Segment]
		if !ok {
			p = &SegmentProfile{Segment: r.Segment}
			byLabel[r.Segment] = p
		}
		p.Count++
		p.AvgScore += r.Score
		p.AvgSpend += r.AnnualSpend
		p.AvgRampTime += r.RampTimeMonths
		p.AvgPartnership += float64(r.Partnership)
		p.AvgInnovation += float64(r.Innovation)
		p.AvgSupplyRisk += float64(r.SupplyRisk)
		p.AvgSoleSourceRatio += r.SoleSourceRatio()
		p.SpendShare += r.AnnualSpend
	}

	var out []SegmentProfile
	for _, label := range order {
		p, ok := byLabel[label]
		if !ok {
			continue
		}
		n := float64(p.Count)
		p.AvgScore /= n
		p.AvgSpend /= n
		p.AvgRampTime /= n
		p.AvgPartnership /= n
		p.AvgInnovation /= n
		p.AvgSupplyRisk /= n
		p.AvgSoleSourceRatio /= n
		if totalSpend > 0 {
			p.SpendShare = p.SpendShare / totalSpend * 100
		} else {
			p.SpendShare = 0
		}
		out = append(out, *p)
	}
	return out
}

// UnitBreakdown summarizes one business unit of the classified table.
type UnitBreakdown struct {
	BusinessUnit        string                    `json:"business_unit"`
	Suppliers           int                       `json:"suppliers"`
	TotalSpend          float64                   `json:"total_spend"`
	AvgScore            float64                   `json:"avg_score"`
	SegmentPct          map[model.Segment]float64 `json:"segment_pct"`
	StrategicSpendShare float64                   `json:"strategic_spend_share"`
}

// UnitBreakdowns groups the table by business unit, computing segment
// distribution and the spend share held by the most strategic label.
// Results are sorted by business unit name.
func UnitBreakdowns(rows []model.ScoredSupplier, topLabel model.Segment) []UnitBreakdown {
	byUnit := make(map[string]*UnitBreakdown)
	topSpend := make(map[string]float64)
	segCounts := make(map[string]map[model.Segment]int)

	for i := range rows {
		r := &rows[i]
		b, ok := byUnit[r.BusinessUnit]
		if !ok {
			b = &UnitBreakdown{BusinessUnit: r.BusinessUnit, SegmentPct: map[model.Segment]float64{}}
			byUnit[r.BusinessUnit] = b
			segCounts[r.BusinessUnit] = map[model.Segment]int{}
		}
		b.Suppliers++
		b.TotalSpend += r.AnnualSpend
		b.AvgScore += r.Score
		segCounts[r.BusinessUnit][r.Segment]++
		if r.Segment == topLabel {
			topSpend[r.BusinessUnit] += r.AnnualSpend
		}
	}

	units := make([]string, 0, len(byUnit))
	for unit := range byUnit {
		units = append(units, unit)
	}
	sort.Strings(units)

	out := make([]UnitBreakdown, 0, len(units))
	for _, unit := range units {
		b := byUnit[unit]
		b.AvgScore /= float64(b.Suppliers)
		for seg, n := range segCounts[unit] {
			b.SegmentPct[seg] = float64(n) / float64(b.Suppliers) * 100
		}
		if b.TotalSpend > 0 {
			b.StrategicSpendShare = topSpend[unit] / b.TotalSpend * 100
		}
		out = append(out, *b)
	}
	return out
}

// RiskSummary counts risk and dependency concentrations across segments.
type RiskSummary struct {
	HighRiskBySegment   map[model.Segment]int `json:"high_risk_by_segment"`
	SoleSourceBySegment map[model.Segment]int `json:"sole_source_by_segment"`
	CriticalHighRisk    int                   `json:"critical_high_risk"`
	HighSpendHighRisk   int                   `json:"high_spend_high_risk"`
}

// RiskConcentration analyzes where high supply risk concentrates. The
// criticalLabels set names the segments whose high-risk suppliers demand
// attention; high spend means above the 80th-percentile spend.
func RiskConcentration(rows []model.ScoredSupplier, criticalLabels ...model.Segment) RiskSummary {
	sum := RiskSummary{
		HighRiskBySegment:   map[model.Segment]int{},
		SoleSourceBySegment: map[model.Segment]int{},
	}
	critical := make(map[model.Segment]bool, len(criticalLabels))
	for _, l := range criticalLabels {
		critical[l] = true
	}

	spendCutoff := spendQuantile(rows, 0.8)

	for i := range rows {
		r := &rows[i]
		highRisk := r.SupplyRisk == model.RatingMax
		if highRisk {
			sum.HighRiskBySegment[r.Segment]++
			if critical[r.Segment] {
				sum.CriticalHighRisk++
			}
			if r.AnnualSpend > spendCutoff {
				sum.HighSpendHighRisk++
			}
		}
		if r.SoleSourceParts > 0 {
			sum.SoleSourceBySegment[r.Segment]++
		}
	}
	return sum
}

// spendQuantile returns the linearly interpolated q-quantile of spend.
func spendQuantile(rows []model.ScoredSupplier, q float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	spends := make([]float64, len(rows))
	for i := range rows {
		spends[i] = rows[i].AnnualSpend
	}
	sort.Float64s(spends)

	pos := q * float64(len(spends)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return spends[lo]
	}
	frac := pos - float64(lo)
	return spends[lo]*(1-frac) + spends[hi]*frac
}

// TopSuppliers returns the n highest-scoring rows, score descending with
// supplier ID as the tiebreak.
func TopSuppliers(rows []model.ScoredSupplier, n int) []model.ScoredSupplier {
	out := make([]model.ScoredSupplier, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Effectiveness measures how cleanly the segmentation separates scores.
type Effectiveness struct {
	ScoreSeparation        float64 `json:"score_separation"`
	WithinSegmentVariance  float64 `json:"within_segment_variance"`
	BetweenSegmentVariance float64 `json:"between_segment_variance"`
	VarianceRatio          float64 `json:"variance_ratio"`
}

// EffectivenessMetrics computes the spread between segment mean scores and
// the ratio of between-segment to total score variance.
func EffectivenessMetrics(rows []model.ScoredSupplier) Effectiveness {
	if len(rows) == 0 {
		return Effectiveness{}
	}

	var grandSum float64
	segSum := map[model.Segment]float64{}
	segN := map[model.Segment]int{}
	for i := range rows {
		grandSum += rows[i].Score
		segSum[rows[i].Segment] += rows[i].Score
		segN[rows[i].Segment]++
	}
	grandMean := grandSum / float64(len(rows))

	segMean := map[model.Segment]float64{}
	minMean, maxMean := math.Inf(1), math.Inf(-1)
	var between float64
	for seg, sum := range segSum {
		mean := sum / float64(segN[seg])
		segMean[seg] = mean
		minMean = math.Min(minMean, mean)
		maxMean = math.Max(maxMean, mean)
		between += float64(segN[seg]) * (mean - grandMean) * (mean - grandMean)
	}
	between /= float64(len(rows))

	var total, withinSum float64
	withinN := map[model.Segment]float64{}
	for i := range rows {
		d := rows[i].Score - grandMean
		total += d * d
		w := rows[i].Score - segMean[rows[i].Segment]
		withinN[rows[i].Segment] += w * w
	}
	total /= float64(len(rows))
	for seg, sq := range withinN {
		withinSum += sq / float64(segN[seg])
	}
	within := withinSum / float64(len(segN))

	e := Effectiveness{
		ScoreSeparation:        maxMean - minMean,
		WithinSegmentVariance:  within,
		BetweenSegmentVariance: between,
	}
	if total > 0 {
		e.VarianceRatio = between / total
	}
	return e
}
