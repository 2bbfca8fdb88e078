// Package decision fuses model output with market quotes and manual overrides
// into one recommendation per matchup.
package decision

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/courtside/internal/models"
)

// edgeEpsilon absorbs float noise at the inclusive edge and tier boundaries
const edgeEpsilon = 1e-9

var validate = validator.New()

// Policy is a versioned set of decision thresholds
type Policy struct {
	Version              string             `json:"version" validate:"required"`
	MinMoneylineEdge     float64            `json:"min_moneyline_edge" validate:"gt=0,lt=1"`
	MinSpreadCoverage    float64            `json:"min_spread_coverage" validate:"gte=0"`
	SpreadEdgeDivisor    float64            `json:"spread_edge_divisor" validate:"gt=0"`
	HighConfidenceEdge   float64            `json:"high_confidence_edge" validate:"gtfield=MediumConfidenceEdge"`
	MediumConfidenceEdge float64            `json:"medium_confidence_edge" validate:"gt=0"`
	ProbabilityFloor     float64            `json:"probability_floor" validate:"gt=0,lt=0.5"`
	ProbabilityCeiling   float64            `json:"probability_ceiling" validate:"gt=0.5,lt=1"`
	SignalThreshold      float64            `json:"signal_threshold" validate:"gte=0"`
	Quotes               models.QuoteBounds `json:"quotes"`
}

// DefaultPolicy returns the standard thresholds
func DefaultPolicy() Policy {
	return Policy{
		Version:              "v1",
		MinMoneylineEdge:     0.05,
		MinSpreadCoverage:    2.5,
		SpreadEdgeDivisor:    20,
		HighConfidenceEdge:   0.10,
		MediumConfidenceEdge: 0.05,
		ProbabilityFloor:     0.01,
		ProbabilityCeiling:   0.99,
		SignalThreshold:      0.05,
		Quotes:               models.DefaultQuoteBounds(),
	}
}

// Validate checks the thresholds are coherent
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid decision policy %q: %w", p.Version, err)
	}
	if p.Quotes.MinProbability >= p.Quotes.MaxProbability {
		return fmt.Errorf("invalid decision policy %q: quote bounds %.2f >= %.2f",
			p.Version, p.Quotes.MinProbability, p.Quotes.MaxProbability)
	}
	return nil
}

// Thresholds flattens the policy for audit logging
func (p Policy) Thresholds() map[string]float64 {
	return map[string]float64{
		"min_moneyline_edge":     p.MinMoneylineEdge,
		"min_spread_coverage":    p.MinSpreadCoverage,
		"spread_edge_divisor":    p.SpreadEdgeDivisor,
		"high_confidence_edge":   p.HighConfidenceEdge,
		"medium_confidence_edge": p.MediumConfidenceEdge,
		"probability_floor":      p.ProbabilityFloor,
		"probability_ceiling":    p.ProbabilityCeiling,
		"signal_threshold":       p.SignalThreshold,
		"quote_min_probability":  p.Quotes.MinProbability,
		"quote_max_probability":  p.Quotes.MaxProbability,
		"quote_max_age_seconds":  p.Quotes.MaxAge.Seconds(),
	}
}

// Classify buckets an edge into a confidence tier
func (p Policy) Classify(edge float64) models.Confidence {
	switch {
	case edge >= p.HighConfidenceEdge-edgeEpsilon:
		return models.ConfidenceHigh
	case edge >= p.MediumConfidenceEdge-edgeEpsilon:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// Clamp bounds a home win probability and re-derives the away complement
func (p Policy) Clamp(home float64) (float64, float64) {
	home = math.Max(p.ProbabilityFloor, math.Min(p.ProbabilityCeiling, home))
	return home, 1 - home
}

// Override is a manual penalty for a team missing key personnel
type Override struct {
	Player  string  `json:"player" mapstructure:"player" validate:"required"`
	Penalty float64 `json:"penalty" mapstructure:"penalty" validate:"gt=0,lt=1"`
}

// Overrides maps team code to its active override
type Overrides map[string]Override

// Validate checks every entry
func (o Overrides) Validate() error {
	for team, ov := range o {
		if len(team) != 3 || strings.ToUpper(team) != team {
			return fmt.Errorf("invalid override team code %q", team)
		}
		if err := validate.Struct(ov); err != nil {
			return fmt.Errorf("invalid override for %s: %w", team, err)
		}
	}
	return nil
}

// Teams returns override team codes in sorted order
func (o Overrides) Teams() []string {
	out := make([]string, 0, len(o))
	for team := range o {
		out = append(out, team)
	}
	sort.Strings(out)
	return out
}

// apply shifts probability away from each penalized team. It returns the
// unclamped home probability and a note per applied override.
func (o Overrides) apply(m models.Matchup, home float64) (float64, []string) {
	var notes []string
	if ov, ok := o[m.Home]; ok {
		home -= ov.Penalty
		notes = append(notes, fmt.Sprintf("%s: %s out (-%.0f%%)", m.Home, ov.Player, ov.Penalty*100))
	}
	if ov, ok := o[m.Away]; ok {
		home += ov.Penalty
		notes = append(notes, fmt.Sprintf("%s: %s out (-%.0f%%)", m.Away, ov.Player, ov.Penalty*100))
	}
	return home, notes
}

// Config bundles the policy, the overrides and batch settings for an Engine
type Config struct {
	Policy    Policy
	Overrides Overrides
	Workers   int
	Clock     func() time.Time
}

// DefaultConfig returns the default policy with no overrides
func DefaultConfig() Config {
	return Config{Policy: DefaultPolicy(), Overrides: Overrides{}, Workers: 4}
}
