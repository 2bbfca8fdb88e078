package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ScanLogger provides dedicated logging for batch scans.
type ScanLogger struct {
	*logrus.Entry
}

// NewScanLogger creates a new scan logger.
func NewScanLogger(baseLogger *logrus.Logger) *ScanLogger {
	return &ScanLogger{
		Entry: baseLogger.WithField("component", "scanner"),
	}
}

// LogSnapshotBuilt logs a freshly built history snapshot.
func (sl *ScanLogger) LogSnapshotBuilt(snapshotID, source string, records, teams int) {
	sl.WithFields(logrus.Fields{
		"snapshot_id": snapshotID,
		"source":      source,
		"records":     records,
		"teams":       teams,
	}).Info("History snapshot built")
}

// LogScanStarted logs the start of a scan.
func (sl *ScanLogger) LogScanStarted(date time.Time, matchups int) {
	sl.WithFields(logrus.Fields{
		"date":     date.Format("2006-01-02"),
		"matchups": matchups,
	}).Info("Scan started")
}

// LogScanCompleted logs the outcome counts of a scan.
func (sl *ScanLogger) LogScanCompleted(date time.Time, signals, noSignals, failed int, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"date":        date.Format("2006-01-02"),
		"signals":     signals,
		"no_signals":  noSignals,
		"failed":      failed,
		"duration_ms": duration.Milliseconds(),
	}).Info("Scan completed")
}
