package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for policy and model changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPolicyActivated logs the decision thresholds that became active.
func (al *AuditLogger) LogPolicyActivated(version string, thresholds map[string]float64, overrides int) {
	al.WithFields(logrus.Fields{
		"policy_version": version,
		"thresholds":     thresholds,
		"overrides":      overrides,
	}).Info("Decision policy activated")
}

// LogModelSwap logs a model generation replacing the serving one.
func (al *AuditLogger) LogModelSwap(modelName, oldVersion, newVersion string, trainedAt time.Time) {
	al.WithFields(logrus.Fields{
		"model_name":  modelName,
		"old_version": oldVersion,
		"new_version": newVersion,
		"trained_at":  trainedAt.Unix(),
	}).Info("Serving model replaced")
}

// LogRecommendation logs a signal that was emitted to consumers.
func (al *AuditLogger) LogRecommendation(id, matchup, side string, edge float64, confidence string, createdAt time.Time) {
	al.WithFields(logrus.Fields{
		"recommendation_id": id,
		"matchup":           matchup,
		"side":              side,
		"edge":              edge,
		"confidence":        confidence,
		"timestamp":         createdAt.Unix(),
	}).Info("Recommendation recorded")
}
