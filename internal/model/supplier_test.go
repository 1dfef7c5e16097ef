package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSupplier() Supplier {
	return Supplier{
		ID:                "SUP_0001",
		BusinessUnit:      "Business_Unit_A",
		AnnualSpend:       500,
		SoleSourceParts:   2,
		SingleSourceParts: 5,
		MultiSourceParts:  13,
		RampTimeMonths:    6,
		Partnership:       2,
		Innovation:        2,
		SupplyRisk:        1,
	}
}

func TestSupplierRatios(t *testing.T) {
	s := validSupplier()

	assert.Equal(t, 20, s.TotalParts())
	assert.InDelta(t, 0.10, s.SoleSourceRatio(), 1e-9)
	assert.InDelta(t, 0.25, s.SingleSourceRatio(), 1e-9)
	assert.InDelta(t, 0.65, s.MultiSourceRatio(), 1e-9)

	sum := s.SoleSourceRatio() + s.SingleSourceRatio() + s.MultiSourceRatio()
	assert.InDelta(t, 1.0, sum, 1e-9, "ratios must sum to 1 when total parts > 0")
}

func TestSupplierRatiosZeroParts(t *testing.T) {
	s := validSupplier()
	s.SoleSourceParts = 0
	s.SingleSourceParts = 0
	s.MultiSourceParts = 0

	// Denominator floors at 1, so all ratios are 0 rather than NaN.
	assert.Zero(t, s.SoleSourceRatio())
	assert.Zero(t, s.SingleSourceRatio())
	assert.Zero(t, s.MultiSourceRatio())
}

func TestSupplierValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Supplier)
		wantField string
	}{
		{"valid", func(s *Supplier) {}, ""},
		{"zero spend is valid", func(s *Supplier) { s.AnnualSpend = 0 }, ""},
		{"empty id", func(s *Supplier) { s.ID = "" }, "supplier_id"},
		{"empty business unit", func(s *Supplier) { s.BusinessUnit = "" }, "business_unit"},
		{"negative spend", func(s *Supplier) { s.AnnualSpend = -1 }, "annual_spend"},
		{"nan spend", func(s *Supplier) { s.AnnualSpend = math.NaN() }, "annual_spend"},
		{"inf ramp", func(s *Supplier) { s.RampTimeMonths = math.Inf(1) }, "ramp_time_months"},
		{"negative ramp", func(s *Supplier) { s.RampTimeMonths = -3 }, "ramp_time_months"},
		{"negative sole count", func(s *Supplier) { s.SoleSourceParts = -1 }, "sole_source_parts"},
		{"negative single count", func(s *Supplier) { s.SingleSourceParts = -1 }, "single_source_parts"},
		{"negative multi count", func(s *Supplier) { s.MultiSourceParts = -1 }, "multi_source_parts"},
		{"partnership too low", func(s *Supplier) { s.Partnership = 0 }, "partnership_score"},
		{"innovation too high", func(s *Supplier) { s.Innovation = 4 }, "innovation_score"},
		{"risk out of range", func(s *Supplier) { s.SupplyRisk = 9 }, "supply_risk_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSupplier()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{SupplierID: "SUP_0009", BusinessUnit: "Business_Unit_X"}
	assert.Contains(t, err.Error(), "SUP_0009")
	assert.Contains(t, err.Error(), "Business_Unit_X")
}
