// Package weights loads and validates per-business-unit scoring weights and
// the segment threshold table.
package weights

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/segment-cli/internal/model"
)

// Set holds the named scoring coefficients for one business unit.
// The field names follow the methodology's W0..W9 numbering.
type Set struct {
	ScaleFactor  float64 `yaml:"scale_factor"`  // W0
	SoleSource   float64 `yaml:"sole_source"`   // W2
	SingleSource float64 `yaml:"single_source"` // W3
	MultiSource  float64 `yaml:"multi_source"`  // W4
	RampTime     float64 `yaml:"ramp_time"`     // W5
	Spend        float64 `yaml:"spend"`         // W6
	Partnership  float64 `yaml:"partnership"`   // W7
	Innovation   float64 `yaml:"innovation"`    // W8
	SupplyRisk   float64 `yaml:"supply_risk"`   // W9
}

// Sum returns the sum of the component weights, excluding the scale factor.
// Only the dominant sourcing weight counts toward the bound because the
// three sourcing ratios share one component.
func (s Set) Sum() float64 {
	sourcing := math.Max(s.SoleSource, math.Max(s.SingleSource, s.MultiSource))
	return sourcing + s.RampTime + s.Spend + s.Partnership + s.Innovation + s.SupplyRisk
}

// Validate checks that every coefficient is non-negative and finite.
func (s Set) Validate() error {
	var errs []string
	fields := map[string]float64{
		"scale_factor":  s.ScaleFactor,
		"sole_source":   s.SoleSource,
		"single_source": s.SingleSource,
		"multi_source":  s.MultiSource,
		"ramp_time":     s.RampTime,
		"spend":         s.Spend,
		"partnership":   s.Partnership,
		"innovation":    s.Innovation,
		"supply_risk":   s.SupplyRisk,
	}
	for name, w := range fields {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			errs = append(errs, fmt.Sprintf("%s must be finite", name))
			continue
		}
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return eris.Errorf("weights: invalid set: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Threshold is one entry of the ordered segment threshold table.
type Threshold struct {
	Segment       model.Segment `yaml:"segment"`
	MinPercentile float64       `yaml:"min_percentile"`
}

// Config is the engine configuration loaded from the weights file: one Set
// per business unit plus the segment threshold table.
type Config struct {
	Units      map[string]Set `yaml:"units"`
	Thresholds []Threshold    `yaml:"thresholds"`
}

// DefaultThresholds returns the reference segmentation thresholds:
// top 5% Strategic, next 10% Critical, next 40% Operational, rest Transactional.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Segment: model.SegmentStrategic, MinPercentile: 95},
		{Segment: model.SegmentCritical, MinPercentile: 85},
		{Segment: model.SegmentOperational, MinPercentile: 45},
		{Segment: model.SegmentTransactional, MinPercentile: 0},
	}
}

// Load reads a weights file. Missing thresholds fall back to the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "weights: read %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrapf(err, "weights: parse %s", path)
	}

	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = DefaultThresholds()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every unit's weight set and the threshold table. The
// table is normalized to descending minimum-percentile order so the
// classifier can evaluate it top-down.
func (c *Config) Validate() error {
	if len(c.Units) == 0 {
		return eris.New("weights: no business units configured")
	}
	for unit, set := range c.Units {
		if err := set.Validate(); err != nil {
			return eris.Wrapf(err, "weights: unit %s", unit)
		}
	}

	if len(c.Thresholds) == 0 {
		return eris.New("weights: empty threshold table")
	}
	sort.SliceStable(c.Thresholds, func(i, j int) bool {
		return c.Thresholds[i].MinPercentile > c.Thresholds[j].MinPercentile
	})

	seen := make(map[model.Segment]bool, len(c.Thresholds))
	for _, th := range c.Thresholds {
		if th.Segment == "" {
			return eris.New("weights: threshold with empty segment label")
		}
		if seen[th.Segment] {
			return eris.Errorf("weights: duplicate threshold label %q", th.Segment)
		}
		seen[th.Segment] = true
		if th.MinPercentile < 0 || th.MinPercentile > 100 {
			return eris.Errorf("weights: threshold %q min_percentile out of range: %g", th.Segment, th.MinPercentile)
		}
	}

	// The lowest tier must catch everything.
	if last := c.Thresholds[len(c.Thresholds)-1]; last.MinPercentile != 0 {
		return eris.Errorf("weights: lowest threshold %q must have min_percentile 0", last.Segment)
	}
	return nil
}

// ForUnit returns the weight set for a business unit.
func (c *Config) ForUnit(unit string) (Set, bool) {
	s, ok := c.Units[unit]
	return s, ok
}

// SegmentOrder returns the threshold labels from most to least strategic.
func (c *Config) SegmentOrder() []model.Segment {
	order := make([]model.Segment, len(c.Thresholds))
	for i, th := range c.Thresholds {
		order[i] = th.Segment
	}
	return order
}
