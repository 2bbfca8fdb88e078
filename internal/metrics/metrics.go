// Package metrics provides the centralized Prometheus registry for the scanner.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "courtside"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Total number of scan cycles by status",
	}, []string{"status"})
	SignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_total",
		Help:      "Total number of emitted signals by side and confidence",
	}, []string{"side", "confidence"})
	SnapshotRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_refreshes_total",
		Help:      "Total number of history snapshot rebuilds by source and status",
	}, []string{"source", "status"})
	AnalyzeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyze_requests_total",
		Help:      "Total number of analyze API requests by HTTP status code",
	}, []string{"code"})
)

// Gauge metrics
var (
	SnapshotRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_records",
		Help:      "Number of performance records in the serving snapshot",
	})
	SnapshotAgeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_built_timestamp_seconds",
		Help:      "Unix time the serving snapshot was built",
	})
	LastScanMatchups = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_scan_matchups",
		Help:      "Matchups in the most recent scan by outcome status",
	}, []string{"status"})
)

// Histogram metrics
var (
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Duration of scan cycles in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	SnapshotBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "snapshot_build_duration_seconds",
		Help:      "Duration of history snapshot builds in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Go and process collectors come from the default registry in Handler

		// Register counter metrics
		registry.MustRegister(ScansTotal)
		registry.MustRegister(SignalsTotal)
		registry.MustRegister(SnapshotRefreshesTotal)
		registry.MustRegister(AnalyzeRequestsTotal)

		// Register gauge metrics
		registry.MustRegister(SnapshotRecords)
		registry.MustRegister(SnapshotAgeSeconds)
		registry.MustRegister(LastScanMatchups)

		// Register histogram metrics
		registry.MustRegister(ScanDuration)
		registry.MustRegister(SnapshotBuildDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestAccuracy)
		registry.MustRegister(BacktestROI)
		registry.MustRegister(BacktestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler serves the scanner registry together with the model and decision
// collectors registered on the default registry.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordScan records a finished scan cycle.
func RecordScan(status string, durationSeconds float64, signals, noSignals, failed int) {
	ScansTotal.WithLabelValues(status).Inc()
	ScanDuration.Observe(durationSeconds)
	LastScanMatchups.WithLabelValues("signal").Set(float64(signals))
	LastScanMatchups.WithLabelValues("no_signal").Set(float64(noSignals))
	LastScanMatchups.WithLabelValues("failed").Set(float64(failed))
}

// RecordSignal records an emitted recommendation.
func RecordSignal(side, confidence string) {
	SignalsTotal.WithLabelValues(side, confidence).Inc()
}

// RecordSnapshot records a snapshot rebuild attempt.
func RecordSnapshot(source, status string, records int, builtAtUnix, durationSeconds float64) {
	SnapshotRefreshesTotal.WithLabelValues(source, status).Inc()
	SnapshotBuildDuration.Observe(durationSeconds)
	if status == "success" {
		SnapshotRecords.Set(float64(records))
		SnapshotAgeSeconds.Set(builtAtUnix)
	}
}

// RecordAnalyzeRequest records an analyze API response code.
func RecordAnalyzeRequest(code string) {
	AnalyzeRequestsTotal.WithLabelValues(code).Inc()
}
