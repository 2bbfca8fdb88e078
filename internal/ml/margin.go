package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/models"
)

// RegressorMetrics summarizes a margin model training run
type RegressorMetrics struct {
	Version     string              `json:"version"`
	MAE         float64             `json:"mae"`
	RMSE        float64             `json:"rmse"`
	R2          float64             `json:"r2"`
	CVMAEMean   float64             `json:"cv_mae_mean"`
	CVMAEStd    float64             `json:"cv_mae_std"`
	CVRMSEMean  float64             `json:"cv_rmse_mean"`
	CVR2Mean    float64             `json:"cv_r2_mean"`
	SearchScore float64             `json:"search_score,omitempty"`
	TrainSize   int                 `json:"train_size"`
	TestSize    int                 `json:"test_size"`
	Params      Params              `json:"params"`
	Importance  []FeatureImportance `json:"importance"`
}

// MarginModel maps a feature vector to the team's expected point margin
type MarginModel struct {
	*model
}

// NewMarginModel creates a margin model with no artifact loaded
func NewMarginModel(logger *logrus.Logger) *MarginModel {
	return &MarginModel{model: newModel(KindRegressor, "margin", logger)}
}

// Predict returns the expected margin for vec; positive favors the vector's team
func (m *MarginModel) Predict(vec features.Vector) (float64, error) {
	return m.predict(vec)
}

// Train fits the regressor on a random split and reports hold-out and
// cross-validated error. Search, when enabled, minimizes cross-validated MAE.
func (m *MarginModel) Train(ctx context.Context, names []string, X [][]float64, y []float64, cfg TrainConfig) (RegressorMetrics, error) {
	start := time.Now()
	metrics, err := m.train(ctx, names, X, y, cfg)
	MLTrainingDuration.WithLabelValues(m.label).Observe(time.Since(start).Seconds())
	if err != nil {
		MLTrainingJobsTotal.WithLabelValues(m.label, "failure").Inc()
		m.log.WithError(err).Error("Margin model training failed")
		return RegressorMetrics{}, trainingFailed(m.label, err)
	}
	MLTrainingJobsTotal.WithLabelValues(m.label, "success").Inc()
	return metrics, nil
}

func (m *MarginModel) train(ctx context.Context, names []string, X [][]float64, y []float64, cfg TrainConfig) (RegressorMetrics, error) {
	if m.Ready() {
		return RegressorMetrics{}, ErrArtifactSet
	}
	if err := checkShape(m.label, names, X, y); err != nil {
		return RegressorMetrics{}, err
	}
	if std(y) == 0 {
		return RegressorMetrics{}, &models.TrainingError{Model: m.label, Reason: "all margins are equal", Err: ErrDegenerateLabels}
	}
	folds := foldCount(cfg.Folds)
	testSize := cfg.TestSize
	if testSize <= 0 || testSize >= 1 {
		testSize = 0.2
	}

	rng := newRand(cfg.Seed)
	trainIdx, testIdx := trainTestSplit(y, testSize, false, rng)
	if len(trainIdx) < 2*folds || len(testIdx) == 0 {
		return RegressorMetrics{}, &models.TrainingError{
			Model:  m.label,
			Reason: fmt.Sprintf("%d training rows, need %d and a test split", len(trainIdx), 2*folds),
			Err:    ErrTooFewRows,
		}
	}
	trainX, trainY := subsetRows(X, trainIdx), subsetValues(y, trainIdx)
	testX, testY := subsetRows(X, testIdx), subsetValues(y, testIdx)

	params := cfg.Params
	params.Seed = cfg.Seed
	params.ScalePosWeight = 0
	if err := params.validate(); err != nil {
		return RegressorMetrics{}, &models.TrainingError{Model: m.label, Reason: err.Error(), Err: ErrInvalidParams}
	}

	var searchScore float64
	if cfg.Search.Enabled {
		cvFolds := kFold(len(trainY), folds, rng)
		best, all, err := randomSearch(ctx, params, cfg.Search, rng, func(ctx context.Context, p Params) (float64, error) {
			results, err := crossValidate(ctx, trainX, trainY, cvFolds, p, squared{})
			if err != nil {
				return 0, err
			}
			return -mean(foldScores(results, MAE)), nil
		})
		if err != nil {
			return RegressorMetrics{}, fmt.Errorf("hyperparameter search: %w", err)
		}
		MLSearchCandidatesTotal.WithLabelValues(m.label).Add(float64(len(all)))
		for i, c := range all {
			m.log.WithFields(logrus.Fields{"candidate": i, "neg_mae": c.Score, "params": c.Params}).Debug("Search candidate scored")
		}
		params, searchScore = best.Params, best.Score
		m.log.WithFields(logrus.Fields{"neg_mae": best.Score, "params": best.Params}).Info("Best hyperparameters selected")
	}

	ens, err := fitEnsemble(trainX, trainY, params, squared{})
	if err != nil {
		return RegressorMetrics{}, err
	}
	pred := make([]float64, len(testX))
	for i, row := range testX {
		pred[i] = ens.Predict(row)
	}

	cv, err := crossValidate(ctx, X, y, kFold(len(y), folds, rng), params, squared{})
	if err != nil {
		return RegressorMetrics{}, fmt.Errorf("cross-validation: %w", err)
	}
	cvMAE := foldScores(cv, MAE)

	metrics := RegressorMetrics{
		Version:     uuid.New().String(),
		MAE:         MAE(testY, pred),
		RMSE:        RMSE(testY, pred),
		R2:          R2(testY, pred),
		CVMAEMean:   mean(cvMAE),
		CVMAEStd:    std(cvMAE),
		CVRMSEMean:  mean(foldScores(cv, RMSE)),
		CVR2Mean:    mean(foldScores(cv, R2)),
		SearchScore: searchScore,
		TrainSize:   len(trainIdx),
		TestSize:    len(testIdx),
		Params:      params,
		Importance:  importance(names, ens.Gain),
	}

	if err := m.setArtifact(&Artifact{
		Kind:      KindRegressor,
		Version:   metrics.Version,
		TrainedAt: time.Now().UTC(),
		Features:  append([]string(nil), names...),
		Params:    params,
		Ensemble:  ens,
		Metrics: map[string]float64{
			"mae":         metrics.MAE,
			"rmse":        metrics.RMSE,
			"r2":          metrics.R2,
			"cv_mae_mean": metrics.CVMAEMean,
			"cv_mae_std":  metrics.CVMAEStd,
		},
		Importance: metrics.Importance,
	}); err != nil {
		return RegressorMetrics{}, err
	}

	m.log.WithFields(logrus.Fields{
		"version":     metrics.Version,
		"mae":         metrics.MAE,
		"rmse":        metrics.RMSE,
		"r2":          metrics.R2,
		"cv_mae_mean": metrics.CVMAEMean,
		"train_size":  metrics.TrainSize,
		"test_size":   metrics.TestSize,
	}).Info("Margin model trained")
	return metrics, nil
}
