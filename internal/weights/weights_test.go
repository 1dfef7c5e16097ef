package weights

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/segment-cli/internal/model"
)

func referenceSet() Set {
	return Set{
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

func TestSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Set)
		wantErr string
	}{
		{"valid", func(s *Set) {}, ""},
		{"negative weight", func(s *Set) { s.RampTime = -1 }, "ramp_time must be >= 0"},
		{"negative scale", func(s *Set) { s.ScaleFactor = -100 }, "scale_factor must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := referenceSet()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetSumUsesDominantSourcingWeight(t *testing.T) {
	s := referenceSet()
	// 30 (max of 30/20/1) + 25 + 10 + 25 + 5 + 5
	assert.InDelta(t, 100.0, s.Sum(), 1e-9)
}

func TestLoad(t *testing.T) {
	const doc = `
units:
  Business_Unit_A:
    scale_factor: 100
    sole_source: 30
    single_source: 20
    multi_source: 1
    ramp_time: 25
    spend: 10
    partnership: 25
    innovation: 5
    supply_risk: 5
  Business_Unit_B:
    scale_factor: 100
    sole_source: 5
    single_source: 5
    multi_source: 1
    ramp_time: 20
    spend: 10
    partnership: 25
    innovation: 10
    supply_risk: 20
`
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	a, ok := cfg.ForUnit("Business_Unit_A")
	require.True(t, ok)
	assert.InDelta(t, 30.0, a.SoleSource, 1e-9)

	_, ok = cfg.ForUnit("Business_Unit_C")
	assert.False(t, ok)

	// Thresholds default when the file omits them.
	require.Len(t, cfg.Thresholds, 4)
	assert.Equal(t, model.SegmentStrategic, cfg.Thresholds[0].Segment)
	assert.InDelta(t, 95.0, cfg.Thresholds[0].MinPercentile, 1e-9)
	assert.Equal(t, model.SegmentTransactional, cfg.Thresholds[3].Segment)
}

func TestLoadCustomThresholds(t *testing.T) {
	const doc = `
units:
  BU1:
    scale_factor: 100
    partnership: 50
    innovation: 50
thresholds:
  - segment: Core
    min_percentile: 0
  - segment: Premier
    min_percentile: 90
`
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Normalized to descending order regardless of file order.
	require.Len(t, cfg.Thresholds, 2)
	assert.Equal(t, model.Segment("Premier"), cfg.Thresholds[0].Segment)
	assert.Equal(t, []model.Segment{"Premier", "Core"}, cfg.SegmentOrder())
}

func TestConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"no units", Config{Thresholds: DefaultThresholds()}, "no business units"},
		{
			"no zero floor",
			Config{
				Units:      map[string]Set{"BU1": referenceSet()},
				Thresholds: []Threshold{{Segment: "Premier", MinPercentile: 90}},
			},
			"min_percentile 0",
		},
		{
			"duplicate label",
			Config{
				Units: map[string]Set{"BU1": referenceSet()},
				Thresholds: []Threshold{
					{Segment: "Premier", MinPercentile: 90},
					{Segment: "Premier", MinPercentile: 0},
				},
			},
			"duplicate threshold",
		},
		{
			"percentile out of range",
			Config{
				Units: map[string]Set{"BU1": referenceSet()},
				Thresholds: []Threshold{
					{Segment: "Premier", MinPercentile: 150},
					{Segment: "Core", MinPercentile: 0},
				},
			},
			"out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
