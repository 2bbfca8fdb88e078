package logger

import (
	"github.com/sirupsen/logrus"
)

// DecisionLogger provides dedicated logging for per-matchup decisions.
type DecisionLogger struct {
	*logrus.Entry
}

// NewDecisionLogger creates a new decision logger.
func NewDecisionLogger(baseLogger *logrus.Logger) *DecisionLogger {
	return &DecisionLogger{
		Entry: baseLogger.WithField("component", "decision"),
	}
}

// LogDecision logs the decision taken for a matchup.
func (dl *DecisionLogger) LogDecision(matchup, side string, edge, homeWinProb float64, confidence string) {
	dl.WithFields(logrus.Fields{
		"matchup":       matchup,
		"side":          side,
		"edge":          edge,
		"home_win_prob": homeWinProb,
		"confidence":    confidence,
	}).Info("Decision made")
}

// LogOverrideApplied logs a manual probability penalty.
func (dl *DecisionLogger) LogOverrideApplied(matchup, team, player string, penalty float64) {
	dl.WithFields(logrus.Fields{
		"matchup": matchup,
		"team":    team,
		"player":  player,
		"penalty": penalty,
	}).Info("Override applied")
}

// LogQuoteRejected logs a market side skipped for a stale or implausible quote.
func (dl *DecisionLogger) LogQuoteRejected(matchup, team string, probability float64, reason string) {
	dl.WithFields(logrus.Fields{
		"matchup":     matchup,
		"team":        team,
		"probability": probability,
		"reason":      reason,
	}).Warn("Quote rejected")
}

// LogMatchupFailed logs a matchup that could not be analyzed.
func (dl *DecisionLogger) LogMatchupFailed(matchup string, err error) {
	dl.WithFields(logrus.Fields{
		"matchup": matchup,
		"error":   err.Error(),
	}).Error("Matchup analysis failed")
}
