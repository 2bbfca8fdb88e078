// Package ml trains and serves the outcome classifier and margin regressor.
package ml

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/models"
)

// TrainConfig controls a training run
type TrainConfig struct {
	Params   Params
	Search   SearchConfig
	Folds    int
	TestSize float64
	Seed     int64
}

// DefaultOutcomeTrainConfig mirrors the standard classifier training run
func DefaultOutcomeTrainConfig() TrainConfig {
	return TrainConfig{
		Params:   DefaultClassifierParams(),
		Search:   SearchConfig{Enabled: true, Iterations: 20, Workers: 4, Space: DefaultSearchSpace()},
		Folds:    5,
		TestSize: 0.2,
		Seed:     42,
	}
}

// DefaultMarginTrainConfig mirrors the standard regressor training run
func DefaultMarginTrainConfig() TrainConfig {
	return TrainConfig{
		Params:   DefaultRegressorParams(),
		Search:   SearchConfig{Enabled: false, Iterations: 20, Workers: 4, Space: DefaultSearchSpace()},
		Folds:    5,
		TestSize: 0.2,
		Seed:     42,
	}
}

// model holds the artifact shared by both model kinds. The artifact is set
// once by Train or Load and never replaced; a retrain produces a new model.
type model struct {
	kind     string
	label    string
	artifact atomic.Pointer[Artifact]
	log      *logrus.Entry
}

func newModel(kind, label string, logger *logrus.Logger) *model {
	if logger == nil {
		logger = logrus.New()
	}
	return &model{kind: kind, label: label, log: logger.WithField("component", "ml").WithField("model", label)}
}

// Ready reports whether an artifact is loaded
func (m *model) Ready() bool {
	return m.artifact.Load() != nil
}

// Artifact returns the loaded artifact or nil
func (m *model) Artifact() *Artifact {
	return m.artifact.Load()
}

// Features returns the ordered training feature names
func (m *model) Features() []string {
	a := m.Artifact()
	if a == nil {
		return nil
	}
	out := make([]string, len(a.Features))
	copy(out, a.Features)
	return out
}

// Importance returns features ranked by share of split gain
func (m *model) Importance() []FeatureImportance {
	a := m.Artifact()
	if a == nil {
		return nil
	}
	out := make([]FeatureImportance, len(a.Importance))
	copy(out, a.Importance)
	return out
}

// Save persists the loaded artifact
func (m *model) Save(path string) error {
	a := m.Artifact()
	if a == nil {
		return &models.ModelNotReadyError{Model: m.label}
	}
	if err := a.Save(path); err != nil {
		return err
	}
	m.log.WithField("path", path).Info("Model artifact saved")
	return nil
}

// Load reads an artifact into an empty model. An artifact whose feature list
// does not resolve against the feature catalog is rejected.
func (m *model) Load(path string) error {
	if m.Ready() {
		return fmt.Errorf("loading %s model from %s: %w", m.label, path, ErrArtifactSet)
	}
	a, err := LoadArtifact(path, m.kind)
	if err != nil {
		return err
	}
	return m.setArtifact(a)
}

func (m *model) setArtifact(a *Artifact) error {
	if !m.artifact.CompareAndSwap(nil, a) {
		return fmt.Errorf("%s model: %w", m.label, ErrArtifactSet)
	}
	for name, v := range a.Metrics {
		MLModelScore.WithLabelValues(m.label, name).Set(v)
	}
	return nil
}

// predict selects the training-time features from vec and evaluates the ensemble
func (m *model) predict(vec features.Vector) (float64, error) {
	start := time.Now()
	defer func() { MLPredictionLatency.WithLabelValues(m.label).Observe(time.Since(start).Seconds()) }()

	a := m.Artifact()
	if a == nil {
		MLPredictionsTotal.WithLabelValues(m.label, "not_ready").Inc()
		return 0, &models.ModelNotReadyError{Model: m.label}
	}
	x, err := vec.Select(a.Features)
	if err != nil {
		MLPredictionsTotal.WithLabelValues(m.label, "feature_mismatch").Inc()
		return 0, err
	}
	MLPredictionsTotal.WithLabelValues(m.label, "success").Inc()
	return a.Ensemble.Predict(x), nil
}

// checkShape validates a training set against its feature names
func checkShape(label string, names []string, X [][]float64, y []float64) error {
	if len(X) == 0 {
		return &models.TrainingError{Model: label, Err: ErrEmptyDataset}
	}
	if len(X) != len(y) {
		return &models.TrainingError{Model: label, Reason: fmt.Sprintf("%d rows but %d labels", len(X), len(y)), Err: ErrShapeMismatch}
	}
	if len(names) == 0 {
		return &models.TrainingError{Model: label, Reason: "no feature names", Err: ErrShapeMismatch}
	}
	if unknown := features.Unknown(names); len(unknown) > 0 {
		return &models.TrainingError{Model: label, Err: &models.FeatureMismatchError{Unknown: unknown}}
	}
	for i, row := range X {
		if len(row) != len(names) {
			return &models.TrainingError{Model: label, Reason: fmt.Sprintf("row %d has %d values for %d features", i, len(row), len(names)), Err: ErrShapeMismatch}
		}
	}
	return nil
}

func trainingFailed(label string, err error) error {
	var te *models.TrainingError
	if errors.As(err, &te) {
		return err
	}
	return &models.TrainingError{Model: label, Err: err}
}

func sortImportance(imp []FeatureImportance) {
	sort.SliceStable(imp, func(i, j int) bool { return imp[i].Importance > imp[j].Importance })
}
