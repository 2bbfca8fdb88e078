package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/models"
)

// Artifact kinds
const (
	KindClassifier = "classifier"
	KindRegressor  = "regressor"
)

// Artifact is a trained ensemble plus the ordered feature names it was trained on
type Artifact struct {
	Kind       string              `json:"kind"`
	Version    string              `json:"version"`
	TrainedAt  time.Time           `json:"trained_at"`
	Features   []string            `json:"features"`
	Params     Params              `json:"params"`
	Ensemble   *Ensemble           `json:"ensemble"`
	Metrics    map[string]float64  `json:"metrics,omitempty"`
	Importance []FeatureImportance `json:"importance,omitempty"`
}

// FeatureImportance is a feature's share of total split gain
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// validate checks the artifact is complete and its feature list resolves
// against the feature catalog
func (a *Artifact) validate(kind string) error {
	if a.Kind != kind {
		return fmt.Errorf("artifact kind %q, want %q", a.Kind, kind)
	}
	if len(a.Features) == 0 {
		return fmt.Errorf("artifact has no feature list")
	}
	if unknown := features.Unknown(a.Features); len(unknown) > 0 {
		return &models.FeatureMismatchError{Unknown: unknown}
	}
	seen := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		if seen[f] {
			return fmt.Errorf("artifact lists feature %q twice", f)
		}
		seen[f] = true
	}
	if a.Ensemble == nil {
		return fmt.Errorf("artifact has no ensemble")
	}
	if len(a.Ensemble.Gain) != 0 && len(a.Ensemble.Gain) != len(a.Features) {
		return fmt.Errorf("artifact gain covers %d features, want %d", len(a.Ensemble.Gain), len(a.Features))
	}
	return a.Ensemble.check(len(a.Features))
}

// Save writes the artifact as JSON, replacing path atomically
func (a *Artifact) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// LoadArtifact reads and validates an artifact of the given kind
func LoadArtifact(path, kind string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if err := a.validate(kind); err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return &a, nil
}

func importance(names []string, gain []float64) []FeatureImportance {
	total := 0.0
	for _, g := range gain {
		total += g
	}
	out := make([]FeatureImportance, len(names))
	for i, name := range names {
		out[i].Feature = name
		if total > 0 {
			out[i].Importance = gain[i] / total
		}
	}
	sortImportance(out)
	return out
}
