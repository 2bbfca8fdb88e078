package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/ml"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/teams"
)

const topImportance = 10

// TrainerConfig controls a training job
type TrainerConfig struct {
	Features    features.Options
	MinHistory  int
	Outcome     ml.TrainConfig
	Margin      ml.TrainConfig
	OutcomePath string
	// MarginPath may be empty to skip the margin model
	MarginPath string
}

// TrainingReport summarizes a training job
type TrainingReport struct {
	RunID    uuid.UUID
	Rows     int
	Features int
	Dropped  map[string]int
	Outcome  ml.ClassifierMetrics
	Margin   *ml.RegressorMetrics
	Duration time.Duration

	OutcomeModel *ml.OutcomeModel
	MarginModel  *ml.MarginModel
	Dataset      *features.Dataset
}

// Trainer builds a leak-free dataset from history and fits both models on it
type Trainer struct {
	cfg     TrainerConfig
	history HistorySource
	catalog *teams.Catalog
	logger  *logrus.Logger
	mlLog   *logger.MLLogger
	audit   *logger.AuditLogger
}

// NewTrainer creates a trainer
func NewTrainer(cfg TrainerConfig, history HistorySource, catalog *teams.Catalog, log *logrus.Logger) *Trainer {
	if log == nil {
		log = logrus.New()
	}
	return &Trainer{
		cfg:     cfg,
		history: history,
		catalog: catalog,
		logger:  log,
		mlLog:   logger.NewMLLogger(log),
		audit:   logger.NewAuditLogger(log),
	}
}

// Run trains the outcome model and, when configured, the margin model. Each
// trained artifact is saved to its path when one is set.
func (t *Trainer) Run(ctx context.Context) (*TrainingReport, error) {
	start := time.Now()
	report := &TrainingReport{RunID: uuid.New()}

	ds, err := t.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	report.Rows = len(ds.Rows)
	report.Features = len(ds.Names)
	report.Dropped = ds.Dropped
	report.Dataset = ds

	X := ds.X()

	outcome := ml.NewOutcomeModel(t.logger)
	began := time.Now()
	om, err := outcome.Train(ctx, ds.Names, X, ds.WinLabels(), t.cfg.Outcome)
	if err != nil {
		return nil, err
	}
	t.mlLog.LogModelTraining("outcome", time.Since(began).Seconds(), map[string]float64{
		"accuracy":         om.Accuracy,
		"auc":              om.AUC,
		"cv_accuracy_mean": om.CVAccuracyMean,
		"cv_accuracy_std":  om.CVAccuracyStd,
		"cv_auc_mean":      om.CVAUCMean,
	}, paramFields(om.Params))
	t.mlLog.LogFeatureImportance("outcome", topFeatures(om.Importance, topImportance))
	if err := t.publish("outcome", ml.KindClassifier, outcome, t.cfg.OutcomePath); err != nil {
		return nil, err
	}
	report.Outcome = om
	report.OutcomeModel = outcome

	if t.cfg.MarginPath != "" {
		margin := ml.NewMarginModel(t.logger)
		began = time.Now()
		mm, err := margin.Train(ctx, ds.Names, X, ds.MarginLabels(), t.cfg.Margin)
		if err != nil {
			return nil, err
		}
		t.mlLog.LogModelTraining("margin", time.Since(began).Seconds(), map[string]float64{
			"mae":         mm.MAE,
			"rmse":        mm.RMSE,
			"r2":          mm.R2,
			"cv_mae_mean": mm.CVMAEMean,
			"cv_mae_std":  mm.CVMAEStd,
		}, paramFields(mm.Params))
		t.mlLog.LogFeatureImportance("margin", topFeatures(mm.Importance, topImportance))
		if err := t.publish("margin", ml.KindRegressor, margin, t.cfg.MarginPath); err != nil {
			return nil, err
		}
		report.Margin = &mm
		report.MarginModel = margin
	}

	report.Duration = time.Since(start)
	t.logger.WithFields(logrus.Fields{
		"run_id":      report.RunID,
		"rows":        report.Rows,
		"features":    report.Features,
		"duration_ms": report.Duration.Milliseconds(),
	}).Info("Training job completed")
	return report, nil
}

// Dataset loads history and builds the leak-free training rows. An empty
// dataset is a TrainingError.
func (t *Trainer) Dataset(ctx context.Context) (*features.Dataset, error) {
	snap, err := BuildSnapshot(ctx, t.history, t.catalog, t.cfg.Features, time.Minute)
	if err != nil {
		return nil, &models.TrainingError{Model: "dataset", Reason: "loading history", Err: err}
	}
	ds, err := snap.Engineer.BuildDataset(features.DatasetOptions{MinHistory: t.cfg.MinHistory})
	if err != nil {
		return nil, &models.TrainingError{Model: "dataset", Err: err}
	}
	t.mlLog.LogDatasetBuilt(len(ds.Rows), len(ds.Names), ds.Dropped)
	if len(ds.Rows) == 0 {
		return nil, &models.TrainingError{Model: "dataset", Reason: fmt.Sprintf("no training rows from %d records", snap.Store.Len())}
	}
	return ds, nil
}

// artifactModel is the persistence surface shared by both model kinds
type artifactModel interface {
	Artifact() *ml.Artifact
	Save(path string) error
}

// publish saves a freshly trained model over the previous artifact and audits the swap
func (t *Trainer) publish(name, kind string, m artifactModel, path string) error {
	if path == "" {
		return nil
	}
	oldVersion := "none"
	if prev, err := ml.LoadArtifact(path, kind); err == nil {
		oldVersion = prev.Version
	}
	if err := m.Save(path); err != nil {
		return &models.TrainingError{Model: name, Reason: "saving artifact", Err: err}
	}
	a := m.Artifact()
	t.audit.LogModelSwap(name, oldVersion, a.Version, a.TrainedAt)
	return nil
}

// LoadModels reads the serving artifacts. The outcome model is required; a
// margin artifact that cannot be read leaves the margin model unloaded so its
// predictions report not ready and spreads are skipped.
func LoadModels(outcomePath, marginPath string, log *logrus.Logger) (*ml.OutcomeModel, *ml.MarginModel, error) {
	mlLog := logger.NewMLLogger(log)
	outcome := ml.NewOutcomeModel(log)
	if err := outcome.Load(outcomePath); err != nil {
		return nil, nil, fmt.Errorf("failed to load outcome model: %w", err)
	}
	a := outcome.Artifact()
	mlLog.LogArtifactLoaded("outcome", a.Version, outcomePath, len(a.Features))

	margin := ml.NewMarginModel(log)
	if marginPath == "" {
		return outcome, margin, nil
	}
	if err := margin.Load(marginPath); err != nil {
		log.WithError(err).WithField("path", marginPath).Warn("Margin model unavailable, spread analysis disabled")
		return outcome, margin, nil
	}
	a = margin.Artifact()
	mlLog.LogArtifactLoaded("margin", a.Version, marginPath, len(a.Features))
	return outcome, margin, nil
}

func paramFields(p ml.Params) map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     p.NEstimators,
		"max_depth":        p.MaxDepth,
		"learning_rate":    p.LearningRate,
		"subsample":        p.Subsample,
		"colsample_bytree": p.ColsampleByTree,
		"min_child_weight": p.MinChildWeight,
		"gamma":            p.Gamma,
	}
}

func topFeatures(imp []ml.FeatureImportance, n int) map[string]float64 {
	out := make(map[string]float64, n)
	for i, fi := range imp {
		if i >= n {
			break
		}
		out[fi.Feature] = fi.Importance
	}
	return out
}
