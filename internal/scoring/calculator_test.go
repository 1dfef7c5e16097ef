package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/segment-cli/internal/model"
	"github.com/sells-group/segment-cli/internal/weights"
)

func unitAWeights() weights.Set {
	return weights.Set{
		ScaleFactor:  100,
		SoleSource:   30,
		SingleSource: 20,
		MultiSource:  1,
		RampTime:     25,
		Spend:        10,
		Partnership:  25,
		Innovation:   5,
		SupplyRisk:   5,
	}
}

func TestScoreWorkedExample(t *testing.T) {
	w := unitAWeights()

	// Strongly strategic profile: fully sole-sourced, 24-month ramp, high
	// spend, excellent partnership and innovation, low risk.
	x := model.Supplier{
		ID:              "SUP_X",
		BusinessUnit:    "Business_Unit_A",
		AnnualSpend:     500,
		SoleSourceParts: 5,
		RampTimeMonths:  24,
		Partnership:     3,
		Innovation:      3,
		SupplyRisk:      1,
	}
	// Fully multi-sourced, quick ramp, tiny spend, weak ratings, high risk.
	y := model.Supplier{
		ID:               "SUP_Y",
		BusinessUnit:     "Business_Unit_A",
		AnnualSpend:      1,
		MultiSourceParts: 10,
		RampTimeMonths:   3,
		Partnership:      1,
		Innovation:       1,
		SupplyRisk:       3,
	}

	scoreX, err := Score(&x, w)
	require.NoError(t, err)
	scoreY, err := Score(&y, w)
	require.NoError(t, err)

	// Direct computation of the formula:
	// X: 0.30 + 25*(1-1/5)/100 + 10*(1-1/6)/100 + 0.25 + 0.05 + 0.05
	assert.InDelta(t, 93.3333, scoreX, 0.001)
	// Y: 0.01 + 25*(1-1/1.0625)/100 + 10*(1-1/1.01)/100 + 0.25/3 + 0.05/3 + 0.05/3
	assert.InDelta(t, 14.2363, scoreY, 0.001)

	assert.Greater(t, scoreX, scoreY)
}

func TestScoreDeterministicAndPure(t *testing.T) {
	w := unitAWeights()
	s := model.Supplier{
		ID:                "SUP_0001",
		BusinessUnit:      "Business_Unit_A",
		AnnualSpend:       220,
		SoleSourceParts:   1,
		SingleSourceParts: 4,
		MultiSourceParts:  15,
		RampTimeMonths:    9,
		Partnership:       2,
		Innovation:        2,
		SupplyRisk:        2,
	}
	before := s

	first, err := Score(&s, w)
	require.NoError(t, err)
	second, err := Score(&s, w)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, s, "inputs must not be mutated")
}

func TestScoreBounds(t *testing.T) {
	// With non-negative weights whose sum is <= 100 every score stays in
	// [0, 100] by construction of the normalized components.
	w := unitAWeights()

	suppliers := []model.Supplier{
		{ID: "min", BusinessUnit: "A", AnnualSpend: 0, MultiSourceParts: 0, RampTimeMonths: 0, Partnership: 1, Innovation: 1, SupplyRisk: 3},
		{ID: "max", BusinessUnit: "A", AnnualSpend: 1e12, SoleSourceParts: 99, RampTimeMonths: 600, Partnership: 3, Innovation: 3, SupplyRisk: 1},
		{ID: "mid", BusinessUnit: "A", AnnualSpend: 150, SoleSourceParts: 2, SingleSourceParts: 5, MultiSourceParts: 13, RampTimeMonths: 12, Partnership: 2, Innovation: 2, SupplyRisk: 2},
	}
	for _, s := range suppliers {
		got, err := Score(&s, w)
		require.NoError(t, err, s.ID)
		assert.GreaterOrEqual(t, got, 0.0, s.ID)
		assert.LessOrEqual(t, got, 100.0, s.ID)
	}
}

func TestScoreZeroSpendIsValid(t *testing.T) {
	w := unitAWeights()
	s := model.Supplier{
		ID: "SUP_0002", BusinessUnit: "A",
		AnnualSpend: 0, MultiSourceParts: 3, RampTimeMonths: 6,
		Partnership: 2, Innovation: 2, SupplyRisk: 2,
	}
	got, err := Score(&s, w)
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
}

func TestScoreRejectsInvalidRecord(t *testing.T) {
	w := unitAWeights()
	s := model.Supplier{
		ID: "SUP_0003", BusinessUnit: "A",
		AnnualSpend: -5, MultiSourceParts: 3, RampTimeMonths: 6,
		Partnership: 2, Innovation: 2, SupplyRisk: 2,
	}
	_, err := Score(&s, w)
	require.Error(t, err)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "annual_spend", ve.Field)
}

func TestScoreRejectsNegativeWeights(t *testing.T) {
	w := unitAWeights()
	w.Spend = -10
	s := model.Supplier{
		ID: "SUP_0004", BusinessUnit: "A",
		AnnualSpend: 100, MultiSourceParts: 3, RampTimeMonths: 6,
		Partnership: 2, Innovation: 2, SupplyRisk: 2,
	}
	_, err := Score(&s, w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spend must be >= 0")
}

func TestComponentsMonotone(t *testing.T) {
	t.Run("ramp saturates toward weight", func(t *testing.T) {
		prev := -1.0
		for _, months := range []float64{0, 3, 6, 12, 24, 120} {
			c := rampComponent(months, 25)
			assert.Greater(t, c, prev)
			assert.Less(t, c, 0.25)
			prev = c
		}
	})

	t.Run("spend has diminishing returns", func(t *testing.T) {
		low := spendComponent(100, 10)
		high := spendComponent(10_000, 10)
		assert.Greater(t, high, low)
		assert.Less(t, high, 0.10)
	})

	t.Run("risk is inverted", func(t *testing.T) {
		assert.Greater(t, riskComponent(1, 5), riskComponent(2, 5))
		assert.Greater(t, riskComponent(2, 5), riskComponent(3, 5))
	})
}

func TestComponentsBreakdownSumsToScore(t *testing.T) {
	w := unitAWeights()
	s := model.Supplier{
		ID: "SUP_0005", BusinessUnit: "A",
		AnnualSpend: 340, SoleSourceParts: 3, SingleSourceParts: 2, MultiSourceParts: 5,
		RampTimeMonths: 18, Partnership: 3, Innovation: 2, SupplyRisk: 2,
	}

	score, err := Score(&s, w)
	require.NoError(t, err)

	var sum float64
	for _, c := range Components(&s, w) {
		sum += c
	}
	assert.InDelta(t, score, sum*w.ScaleFactor/100*100, 1e-9)
}
