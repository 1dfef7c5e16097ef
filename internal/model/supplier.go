// Package model defines the supplier table types shared across the engine.
package model

import (
	"fmt"
	"math"
)

// RatingMax is the highest attainable ordinal rating for partnership,
// innovation, and supply risk in the reference data.
const RatingMax = 3

// Supplier is one immutable input row of the supplier table.
type Supplier struct {
	ID                string  `csv:"supplier_id" json:"supplier_id"`
	BusinessUnit      string  `csv:"business_unit" json:"business_unit"`
	AnnualSpend       float64 `csv:"annual_spend" json:"annual_spend"`
	SoleSourceParts   int     `csv:"sole_source_parts" json:"sole_source_parts"`
	SingleSourceParts int     `csv:"single_source_parts" json:"single_source_parts"`
	MultiSourceParts  int     `csv:"multi_source_parts" json:"multi_source_parts"`
	RampTimeMonths    float64 `csv:"ramp_time_months" json:"ramp_time_months"`
	Partnership       int     `csv:"partnership_score" json:"partnership_score"`
	Innovation        int     `csv:"innovation_score" json:"innovation_score"`
	SupplyRisk        int     `csv:"supply_risk_score" json:"supply_risk_score"`
}

// TotalParts returns the supplier's total part count across sourcing types.
func (s *Supplier) TotalParts() int {
	return s.SoleSourceParts + s.SingleSourceParts + s.MultiSourceParts
}

// partsDenominator floors the total at 1 so ratios are defined for
// suppliers with no parts on record.
func (s *Supplier) partsDenominator() float64 {
	total := s.TotalParts()
	if total < 1 {
		total = 1
	}
	return float64(total)
}

// SoleSourceRatio returns the fraction of parts that are sole-sourced.
func (s *Supplier) SoleSourceRatio() float64 {
	return float64(s.SoleSourceParts) / s.partsDenominator()
}

// SingleSourceRatio returns the fraction of parts that are single-sourced.
func (s *Supplier) SingleSourceRatio() float64 {
	return float64(s.SingleSourceParts) / s.partsDenominator()
}

// MultiSourceRatio returns the fraction of parts that are multi-sourced.
func (s *Supplier) MultiSourceRatio() float64 {
	return float64(s.MultiSourceParts) / s.partsDenominator()
}

// Validate checks a row for malformed values. It returns a *ValidationError
// naming the offending field; values are never silently clamped.
func (s *Supplier) Validate() error {
	if s.ID == "" {
		return &ValidationError{SupplierID: s.ID, Field: "supplier_id", Reason: "must not be empty"}
	}
	if s.BusinessUnit == "" {
		return &ValidationError{SupplierID: s.ID, Field: "business_unit", Reason: "must not be empty"}
	}
	if math.IsNaN(s.AnnualSpend) || math.IsInf(s.AnnualSpend, 0) {
		return &ValidationError{SupplierID: s.ID, Field: "annual_spend", Reason: "must be finite"}
	}
	if s.AnnualSpend < 0 {
		return &ValidationError{SupplierID: s.ID, Field: "annual_spend", Reason: "must not be negative"}
	}
	if s.SoleSourceParts < 0 {
		return &ValidationError{SupplierID: s.ID, Field: "sole_source_parts", Reason: "must not be negative"}
	}
	if s.SingleSourceParts < 0 {
		return &ValidationError{SupplierID: s.ID, Field: "single_source_parts", Reason: "must not be negative"}
	}
	if s.MultiSourceParts < 0 {
		return &ValidationError{SupplierID: s.ID, Field: "multi_source_parts", Reason: "must not be negative"}
	}
	if math.IsNaN(s.RampTimeMonths) || math.IsInf(s.RampTimeMonths, 0) {
		return &ValidationError{SupplierID: s.ID, Field: "ramp_time_months", Reason: "must be finite"}
	}
	if s.RampTimeMonths < 0 {
		return &ValidationError{SupplierID: s.ID, Field: "ramp_time_months", Reason: "must not be negative"}
	}
	for _, r := range []struct {
		field string
		value int
	}{
		{"partnership_score", s.Partnership},
		{"innovation_score", s.Innovation},
		{"supply_risk_score", s.SupplyRisk},
	} {
		if r.value < 1 || r.value > RatingMax {
			return &ValidationError{
				SupplierID: s.ID,
				Field:      r.field,
				Reason:     fmt.Sprintf("must be between 1 and %d", RatingMax),
			}
		}
	}
	return nil
}

// ScoredSupplier is a supplier row augmented with the two derived fields.
// Score and Segment are valid only for the classification run that produced
// them; they must be recomputed whenever the table or weights change.
type ScoredSupplier struct {
	Supplier
	Score   float64 `csv:"score" json:"score"`
	Segment Segment `csv:"classification" json:"classification"`
}
