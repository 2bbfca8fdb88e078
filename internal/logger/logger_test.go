package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerWithFormat(t *testing.T) {
	log := NewLoggerWithFormat("debug", "json")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLoggerWithFormat("not-a-level", "text")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewLoggerProductionUsesJSON(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	log := NewLogger("warn")
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestDecisionLoggerDecision(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogDecision("BOS @ LAL", "HOME_ML", 0.07, 0.62, "MEDIUM")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "decision", logEntry["component"])
	assert.Equal(t, "HOME_ML", logEntry["side"])
	assert.Equal(t, 0.07, logEntry["edge"])
}

func TestDecisionLoggerOverride(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogOverrideApplied("BOS @ LAL", "LAL", "Star Player", 0.08)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "LAL", logEntry["team"])
	assert.Equal(t, "Star Player", logEntry["player"])
}

func TestDecisionLoggerQuoteRejected(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogQuoteRejected("BOS @ LAL", "BOS", 0.97, "implausible probability")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, 0.97, logEntry["probability"])
}

func TestDecisionLoggerMatchupFailed(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogMatchupFailed("BOS @ XXX", errors.New("unknown team"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "unknown team", logEntry["error"])
}

func TestMLLoggerModelTraining(t *testing.T) {
	log, buf := setupTestLogger()
	mlLogger := NewMLLogger(log)

	mlLogger.LogModelTraining(
		"outcome",
		12.5,
		map[string]float64{"auc": 0.71, "accuracy": 0.66},
		map[string]interface{}{"max_depth": 5},
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ml", logEntry["component"])
	assert.Equal(t, "outcome", logEntry["model_name"])
	assert.Equal(t, 12.5, logEntry["training_duration"])
}

func TestMLLoggerDatasetBuilt(t *testing.T) {
	log, buf := setupTestLogger()
	mlLogger := NewMLLogger(log)

	mlLogger.LogDatasetBuilt(2400, 42, map[string]int{"insufficient history": 90})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(2400), logEntry["rows"])
	dropped, ok := logEntry["dropped"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(90), dropped["insufficient history"])
}

func TestAuditLoggerPolicyActivated(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogPolicyActivated("v1", map[string]float64{"min_edge": 0.05}, 2)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "v1", logEntry["policy_version"])
	assert.Equal(t, float64(2), logEntry["overrides"])
}

func TestAuditLoggerModelSwap(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	trained := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	auditLogger.LogModelSwap("margin", "20260101", "20260102", trained)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "20260102", logEntry["new_version"])
	assert.Equal(t, float64(trained.Unix()), logEntry["trained_at"])
}

func TestScanLoggerCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	scanLogger.LogScanCompleted(date, 2, 5, 1, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scanner", logEntry["component"])
	assert.Equal(t, "2026-01-15", logEntry["date"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
	assert.Equal(t, float64(1), logEntry["failed"])
}

func BenchmarkDecisionLoggerDecision(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	decisionLogger := NewDecisionLogger(log)

	for i := 0; i < b.N; i++ {
		decisionLogger.LogDecision("BOS @ LAL", "HOME_ML", 0.07, 0.62, "MEDIUM")
	}
}

func BenchmarkAuditLoggerRecommendation(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	auditLogger := NewAuditLogger(log)

	for i := 0; i < b.N; i++ {
		auditLogger.LogRecommendation("rec_123", "BOS @ LAL", "HOME_ML", 0.07, "MEDIUM", time.Now())
	}
}
