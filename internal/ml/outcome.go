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

// ClassifierMetrics summarizes an outcome model training run
type ClassifierMetrics struct {
	Version        string              `json:"version"`
	Accuracy       float64             `json:"accuracy"`
	AUC            float64             `json:"auc"`
	CVAccuracyMean float64             `json:"cv_accuracy_mean"`
	CVAccuracyStd  float64             `json:"cv_accuracy_std"`
	CVAUCMean      float64             `json:"cv_auc_mean"`
	SearchScore    float64             `json:"search_score,omitempty"`
	TrainSize      int                 `json:"train_size"`
	TestSize       int                 `json:"test_size"`
	ScalePosWeight float64             `json:"scale_pos_weight"`
	Params         Params              `json:"params"`
	Importance     []FeatureImportance `json:"importance"`
}

// OutcomeModel maps a feature vector to the team's win probability
type OutcomeModel struct {
	*model
}

// NewOutcomeModel creates an outcome model with no artifact loaded
func NewOutcomeModel(logger *logrus.Logger) *OutcomeModel {
	return &OutcomeModel{model: newModel(KindClassifier, "outcome", logger)}
}

// Predict returns the win probability for vec
func (m *OutcomeModel) Predict(vec features.Vector) (float64, error) {
	return m.predict(vec)
}

// Train fits the classifier on a stratified split, correcting class imbalance
// with the negative to positive ratio of the training split. Cross-validated
// accuracy and AUC are reported over the full dataset.
func (m *OutcomeModel) Train(ctx context.Context, names []string, X [][]float64, y []float64, cfg TrainConfig) (ClassifierMetrics, error) {
	start := time.Now()
	metrics, err := m.train(ctx, names, X, y, cfg)
	MLTrainingDuration.WithLabelValues(m.label).Observe(time.Since(start).Seconds())
	if err != nil {
		MLTrainingJobsTotal.WithLabelValues(m.label, "failure").Inc()
		m.log.WithError(err).Error("Outcome model training failed")
		return ClassifierMetrics{}, trainingFailed(m.label, err)
	}
	MLTrainingJobsTotal.WithLabelValues(m.label, "success").Inc()
	return metrics, nil
}

func (m *OutcomeModel) train(ctx context.Context, names []string, X [][]float64, y []float64, cfg TrainConfig) (ClassifierMetrics, error) {
	if m.Ready() {
		return ClassifierMetrics{}, ErrArtifactSet
	}
	if err := checkShape(m.label, names, X, y); err != nil {
		return ClassifierMetrics{}, err
	}
	pos, neg := 0, 0
	for i, v := range y {
		switch v {
		case 1:
			pos++
		case 0:
			neg++
		default:
			return ClassifierMetrics{}, &models.TrainingError{Model: m.label, Reason: fmt.Sprintf("label %g at row %d is not 0 or 1", v, i), Err: ErrDegenerateLabels}
		}
	}
	if pos == 0 || neg == 0 {
		return ClassifierMetrics{}, &models.TrainingError{Model: m.label, Reason: fmt.Sprintf("%d wins and %d losses", pos, neg), Err: ErrDegenerateLabels}
	}
	folds := foldCount(cfg.Folds)
	testSize := cfg.TestSize
	if testSize <= 0 || testSize >= 1 {
		testSize = 0.2
	}

	rng := newRand(cfg.Seed)
	trainIdx, testIdx := trainTestSplit(y, testSize, true, rng)
	trainX, trainY := subsetRows(X, trainIdx), subsetValues(y, trainIdx)
	testX, testY := subsetRows(X, testIdx), subsetValues(y, testIdx)

	trainPos := 0
	for _, v := range trainY {
		if v == 1 {
			trainPos++
		}
	}
	trainNeg := len(trainY) - trainPos
	if trainPos < folds || trainNeg < folds || len(testIdx) == 0 {
		return ClassifierMetrics{}, &models.TrainingError{
			Model:  m.label,
			Reason: fmt.Sprintf("%d wins and %d losses in training split, need %d of each and a test split", trainPos, trainNeg, folds),
			Err:    ErrTooFewRows,
		}
	}

	params := cfg.Params
	params.Seed = cfg.Seed
	params.ScalePosWeight = float64(trainNeg) / float64(trainPos)
	if err := params.validate(); err != nil {
		return ClassifierMetrics{}, &models.TrainingError{Model: m.label, Reason: err.Error(), Err: ErrInvalidParams}
	}
	m.log.WithField("scale_pos_weight", params.ScalePosWeight).Info("Using computed positive class weight")

	var searchScore float64
	if cfg.Search.Enabled {
		cvFolds := stratifiedKFold(trainY, folds, rng)
		best, all, err := randomSearch(ctx, params, cfg.Search, rng, func(ctx context.Context, p Params) (float64, error) {
			results, err := crossValidate(ctx, trainX, trainY, cvFolds, p, logistic{})
			if err != nil {
				return 0, err
			}
			return mean(foldScores(results, AUC)), nil
		})
		if err != nil {
			return ClassifierMetrics{}, fmt.Errorf("hyperparameter search: %w", err)
		}
		MLSearchCandidatesTotal.WithLabelValues(m.label).Add(float64(len(all)))
		for i, c := range all {
			m.log.WithFields(logrus.Fields{"candidate": i, "cv_auc": c.Score, "params": c.Params}).Debug("Search candidate scored")
		}
		params, searchScore = best.Params, best.Score
		m.log.WithFields(logrus.Fields{"cv_auc": best.Score, "params": best.Params}).Info("Best hyperparameters selected")
	}

	ens, err := fitEnsemble(trainX, trainY, params, logistic{})
	if err != nil {
		return ClassifierMetrics{}, err
	}
	prob := make([]float64, len(testX))
	for i, row := range testX {
		prob[i] = ens.Predict(row)
	}

	cv, err := crossValidate(ctx, X, y, stratifiedKFold(y, folds, rng), params, logistic{})
	if err != nil {
		return ClassifierMetrics{}, fmt.Errorf("cross-validation: %w", err)
	}
	cvAcc := foldScores(cv, Accuracy)

	metrics := ClassifierMetrics{
		Version:        uuid.New().String(),
		Accuracy:       Accuracy(testY, prob),
		AUC:            AUC(testY, prob),
		CVAccuracyMean: mean(cvAcc),
		CVAccuracyStd:  std(cvAcc),
		CVAUCMean:      mean(foldScores(cv, AUC)),
		SearchScore:    searchScore,
		TrainSize:      len(trainIdx),
		TestSize:       len(testIdx),
		ScalePosWeight: params.ScalePosWeight,
		Params:         params,
		Importance:     importance(names, ens.Gain),
	}

	if err := m.setArtifact(&Artifact{
		Kind:      KindClassifier,
		Version:   metrics.Version,
		TrainedAt: time.Now().UTC(),
		Features:  append([]string(nil), names...),
		Params:    params,
		Ensemble:  ens,
		Metrics: map[string]float64{
			"accuracy":         metrics.Accuracy,
			"auc":              metrics.AUC,
			"cv_accuracy_mean": metrics.CVAccuracyMean,
			"cv_accuracy_std":  metrics.CVAccuracyStd,
			"cv_auc_mean":      metrics.CVAUCMean,
		},
		Importance: metrics.Importance,
	}); err != nil {
		return ClassifierMetrics{}, err
	}

	m.log.WithFields(logrus.Fields{
		"version":          metrics.Version,
		"accuracy":         metrics.Accuracy,
		"auc":              metrics.AUC,
		"cv_accuracy_mean": metrics.CVAccuracyMean,
		"cv_accuracy_std":  metrics.CVAccuracyStd,
		"train_size":       metrics.TrainSize,
		"test_size":        metrics.TestSize,
	}).Info("Outcome model trained")
	return metrics, nil
}

func foldCount(n int) int {
	if n < 2 {
		return 5
	}
	return n
}
