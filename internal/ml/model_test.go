package ml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/models"
)

var testNames = []string{features.RollingWinRate, features.OppRollingWinRate, features.TravelDistance}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func fastConfig(search bool) TrainConfig {
	cfg := DefaultOutcomeTrainConfig()
	cfg.Params = smallParams()
	cfg.Search = SearchConfig{
		Enabled:    search,
		Iterations: 3,
		Workers:    2,
		Space: SearchSpace{
			NEstimators:  []int{10, 20},
			MaxDepth:     []int{2, 3},
			LearningRate: []float64{0.2, 0.3},
		},
	}
	return cfg
}

func vectorFor(row []float64) features.Vector {
	vals := make(map[string]float64, len(testNames))
	for i, n := range testNames {
		vals[n] = row[i]
	}
	return features.NewVector(testNames, vals)
}

func TestOutcomeModelNotReady(t *testing.T) {
	m := NewOutcomeModel(quietLogger())
	assert.False(t, m.Ready())
	_, err := m.Predict(vectorFor([]float64{0.5, 0.5, 0}))
	assert.ErrorIs(t, err, models.ErrModelNotReady)
	assert.ErrorIs(t, m.Save(filepath.Join(t.TempDir(), "x.json")), models.ErrModelNotReady)
}

func TestOutcomeModelTrainPredictRoundTrip(t *testing.T) {
	X, y := syntheticClassification(300, 7)
	m := NewOutcomeModel(quietLogger())

	metrics, err := m.Train(context.Background(), testNames, X, y, fastConfig(true))
	require.NoError(t, err)
	assert.True(t, m.Ready())
	assert.Greater(t, metrics.AUC, 0.8)
	assert.Greater(t, metrics.CVAccuracyMean, 0.7)
	assert.Equal(t, 60, metrics.TestSize)
	assert.Equal(t, 240, metrics.TrainSize)
	assert.Greater(t, metrics.ScalePosWeight, 0.0)
	assert.NotZero(t, metrics.SearchScore)
	require.Len(t, metrics.Importance, 3)
	assert.NotEqual(t, features.TravelDistance, metrics.Importance[0].Feature)

	strong, err := m.Predict(vectorFor([]float64{0.9, 0.1, 0.5}))
	require.NoError(t, err)
	weak, err := m.Predict(vectorFor([]float64{0.1, 0.9, 0.5}))
	require.NoError(t, err)
	assert.Greater(t, strong, weak)

	path := filepath.Join(t.TempDir(), "models", "outcome.json")
	require.NoError(t, m.Save(path))

	loaded := NewOutcomeModel(quietLogger())
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, testNames, loaded.Features())
	again, err := loaded.Predict(vectorFor([]float64{0.9, 0.1, 0.5}))
	require.NoError(t, err)
	assert.Equal(t, strong, again)
}

func TestOutcomeModelSelectsTrainingFeatures(t *testing.T) {
	X, y := syntheticClassification(200, 8)
	m := NewOutcomeModel(quietLogger())
	_, err := m.Train(context.Background(), testNames, X, y, fastConfig(false))
	require.NoError(t, err)

	// extra features are dropped and order does not matter
	names := []string{features.FormL3, features.TravelDistance, features.OppRollingWinRate, features.RollingWinRate}
	wide := features.NewVector(names, map[string]float64{
		features.FormL3:            0.2,
		features.TravelDistance:    0.5,
		features.OppRollingWinRate: 0.1,
		features.RollingWinRate:    0.9,
	})
	a, err := m.Predict(wide)
	require.NoError(t, err)
	b, err := m.Predict(vectorFor([]float64{0.9, 0.1, 0.5}))
	require.NoError(t, err)
	assert.Equal(t, b, a)

	narrow := features.NewVector([]string{features.RollingWinRate}, map[string]float64{features.RollingWinRate: 0.9})
	_, err = m.Predict(narrow)
	assert.ErrorIs(t, err, models.ErrFeatureMismatch)
}

func TestOutcomeModelTrainingErrors(t *testing.T) {
	m := NewOutcomeModel(quietLogger())
	ctx := context.Background()

	_, err := m.Train(ctx, testNames, nil, nil, fastConfig(false))
	assert.ErrorIs(t, err, models.ErrTraining)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	X, _ := syntheticClassification(50, 1)
	allWins := make([]float64, len(X))
	for i := range allWins {
		allWins[i] = 1
	}
	_, err = m.Train(ctx, testNames, X, allWins, fastConfig(false))
	assert.ErrorIs(t, err, ErrDegenerateLabels)

	_, err = m.Train(ctx, []string{"bogus", "a", "b"}, X, allWins, fastConfig(false))
	assert.ErrorIs(t, err, models.ErrFeatureMismatch)

	few := [][]float64{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}, {0, 1, 0}}
	_, err = m.Train(ctx, testNames, few, []float64{1, 0, 1, 0}, fastConfig(false))
	assert.ErrorIs(t, err, ErrTooFewRows)
	assert.False(t, m.Ready())
}

func TestLoadRejectsUnknownFeatures(t *testing.T) {
	X, y := syntheticClassification(200, 9)
	m := NewOutcomeModel(quietLogger())
	_, err := m.Train(context.Background(), testNames, X, y, fastConfig(false))
	require.NoError(t, err)

	a := *m.Artifact()
	a.Features = []string{features.RollingWinRate, "retired_feature", features.TravelDistance}
	path := filepath.Join(t.TempDir(), "outcome.json")
	require.NoError(t, a.Save(path))

	err = NewOutcomeModel(quietLogger()).Load(path)
	var fm *models.FeatureMismatchError
	require.True(t, errors.As(err, &fm))
	assert.Equal(t, []string{"retired_feature"}, fm.Unknown)

	_, err = LoadArtifact(path, KindRegressor)
	assert.Error(t, err)
}

func TestArtifactIsSetOnce(t *testing.T) {
	X, y := syntheticClassification(200, 10)
	m := NewOutcomeModel(quietLogger())
	_, err := m.Train(context.Background(), testNames, X, y, fastConfig(false))
	require.NoError(t, err)
	first := m.Artifact()
	path := filepath.Join(t.TempDir(), "outcome.json")
	require.NoError(t, m.Save(path))

	_, err = m.Train(context.Background(), testNames, X, y, fastConfig(false))
	assert.ErrorIs(t, err, ErrArtifactSet)
	assert.ErrorIs(t, err, models.ErrTraining)
	assert.ErrorIs(t, m.Load(path), ErrArtifactSet)
	assert.Same(t, first, m.Artifact())

	loaded := NewOutcomeModel(quietLogger())
	require.NoError(t, loaded.Load(path))
	assert.ErrorIs(t, loaded.Load(path), ErrArtifactSet)
	_, err = loaded.Train(context.Background(), testNames, X, y, fastConfig(false))
	assert.ErrorIs(t, err, ErrArtifactSet)
}

func TestMarginModelTrain(t *testing.T) {
	X, y := syntheticRegression(300, 11)
	m := NewMarginModel(quietLogger())
	cfg := DefaultMarginTrainConfig()
	cfg.Params.NEstimators = 40

	metrics, err := m.Train(context.Background(), testNames, X, y, cfg)
	require.NoError(t, err)
	assert.Less(t, metrics.MAE, 4.0)
	assert.Greater(t, metrics.R2, 0.5)
	assert.Greater(t, metrics.CVMAEMean, 0.0)

	home, err := m.Predict(vectorFor([]float64{0.9, 0.1, 0.5}))
	require.NoError(t, err)
	away, err := m.Predict(vectorFor([]float64{0.1, 0.9, 0.5}))
	require.NoError(t, err)
	assert.Greater(t, home, 0.0)
	assert.Less(t, away, 0.0)

	path := filepath.Join(t.TempDir(), "margin.json")
	require.NoError(t, m.Save(path))
	_, err = LoadArtifact(path, KindClassifier)
	assert.Error(t, err)
	loaded := NewMarginModel(quietLogger())
	require.NoError(t, loaded.Load(path))
	again, err := loaded.Predict(vectorFor([]float64{0.9, 0.1, 0.5}))
	require.NoError(t, err)
	assert.Equal(t, home, again)
}

func TestMarginModelDegenerate(t *testing.T) {
	X, _ := syntheticRegression(50, 1)
	flat := make([]float64, len(X))
	_, err := NewMarginModel(quietLogger()).Train(context.Background(), testNames, X, flat, DefaultMarginTrainConfig())
	assert.ErrorIs(t, err, ErrDegenerateLabels)
}

func TestRandomSearchPicksBest(t *testing.T) {
	cfg := SearchConfig{Iterations: 6, Workers: 3, Space: SearchSpace{MaxDepth: []int{1, 2, 3, 4, 5, 6}}}
	best, all, err := randomSearch(context.Background(), smallParams(), cfg, newRand(5), func(_ context.Context, p Params) (float64, error) {
		return float64(p.MaxDepth), nil
	})
	require.NoError(t, err)
	assert.Len(t, all, 6)
	for _, c := range all {
		assert.LessOrEqual(t, c.Score, best.Score)
	}

	_, _, err = randomSearch(context.Background(), smallParams(), cfg, newRand(5), func(context.Context, Params) (float64, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
}
