// Package scoring implements the weighted supplier scoring formula.
package scoring

import (
	"github.com/sells-group/segment-cli/internal/model"
	"github.com/sells-group/segment-cli/internal/weights"
)

// Score computes a supplier's composite score on the 0-100 scale. It is a
// pure function: deterministic and without mutation of its inputs.
//
// Six components are summed, each pre-divided by 100 so the weight acts as
// a fractional contribution, then the sum is rescaled by the business unit
// scale factor and back to 0-100.
func Score(s *model.Supplier, w weights.Set) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if err := w.Validate(); err != nil {
		return 0, err
	}

	total := sourcingComponent(s, w) +
		rampComponent(s.RampTimeMonths, w.RampTime) +
		spendComponent(s.AnnualSpend, w.Spend) +
		ratingComponent(s.Partnership, w.Partnership) +
		ratingComponent(s.Innovation, w.Innovation) +
		riskComponent(s.SupplyRisk, w.SupplyRisk)

	return w.ScaleFactor / 100 * total * 100, nil
}

// Components returns the named per-component contributions for a supplier,
// before scale-factor rescaling. Used for score explanations.
func Components(s *model.Supplier, w weights.Set) map[string]float64 {
	return map[string]float64{
		"sourcing":    sourcingComponent(s, w),
		"ramp_time":   rampComponent(s.RampTimeMonths, w.RampTime),
		"spend":       spendComponent(s.AnnualSpend, w.Spend),
		"partnership": ratingComponent(s.Partnership, w.Partnership),
		"innovation":  ratingComponent(s.Innovation, w.Innovation),
		"supply_risk": riskComponent(s.SupplyRisk, w.SupplyRisk),
	}
}

// sourcingComponent is the weighted linear combination of the three
// sourcing-mix ratios.
func sourcingComponent(s *model.Supplier, w weights.Set) float64 {
	return (w.SoleSource*s.SoleSourceRatio() +
		w.SingleSource*s.SingleSourceRatio() +
		w.MultiSource*s.MultiSourceRatio()) / 100
}

// rampComponent saturates toward the full weight as ramp time grows: a
// supplier that takes years to replace contributes close to rampWeight.
func rampComponent(months, weight float64) float64 {
	norm := months / 12
	return weight * (1 - 1/(1+norm*norm)) / 100
}

// spendComponent saturates toward the full weight with diminishing returns
// in annual spend. Zero spend contributes zero, not an error.
func spendComponent(spend, weight float64) float64 {
	return weight * (1 - 1/(1+spend/100)) / 100
}

// ratingComponent scales an ordinal 1..RatingMax rating linearly.
func ratingComponent(rating int, weight float64) float64 {
	return weight * (float64(rating) / model.RatingMax) / 100
}

// riskComponent inverts the supply-risk rating: lower risk scores higher.
func riskComponent(rating int, weight float64) float64 {
	return weight * (float64(model.RatingMax+1-rating) / model.RatingMax) / 100
}
