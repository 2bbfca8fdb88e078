package logger

import (
	"github.com/sirupsen/logrus"
)

// MLLogger provides dedicated logging for model training and serving.
type MLLogger struct {
	*logrus.Entry
}

// NewMLLogger creates a new ML logger.
func NewMLLogger(baseLogger *logrus.Logger) *MLLogger {
	return &MLLogger{
		Entry: baseLogger.WithField("component", "ml"),
	}
}

// LogDatasetBuilt logs the size of a training dataset and the rows left out.
func (ml *MLLogger) LogDatasetBuilt(rows, features int, dropped map[string]int) {
	ml.WithFields(logrus.Fields{
		"rows":     rows,
		"features": features,
		"dropped":  dropped,
	}).Info("Training dataset built")
}

// LogModelTraining logs model training events.
func (ml *MLLogger) LogModelTraining(modelName string, trainingDuration float64, metrics map[string]float64, hyperparameters map[string]interface{}) {
	ml.WithFields(logrus.Fields{
		"model_name":        modelName,
		"training_duration": trainingDuration,
		"metrics":           metrics,
		"hyperparameters":   hyperparameters,
	}).Info("Model training completed")
}

// LogFeatureImportance logs the top ranked features of a model.
func (ml *MLLogger) LogFeatureImportance(modelName string, top map[string]float64) {
	ml.WithFields(logrus.Fields{
		"model_name":   modelName,
		"top_features": top,
	}).Info("Feature importance")
}

// LogArtifactLoaded logs a model artifact becoming current.
func (ml *MLLogger) LogArtifactLoaded(modelName, version, path string, features int) {
	ml.WithFields(logrus.Fields{
		"model_name": modelName,
		"version":    version,
		"path":       path,
		"features":   features,
	}).Info("Model artifact loaded")
}
