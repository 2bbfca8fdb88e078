package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by status",
	}, []string{"status"})
)

// Backtest gauge vectors
var (
	BacktestAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_accuracy",
		Help:      "Hold-out accuracy of the latest backtest by confidence threshold",
	}, []string{"threshold"})
	BacktestROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_roi",
		Help:      "Flat-stake return on investment of the latest backtest by bet threshold",
	}, []string{"threshold"})
)

// Backtest histograms
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure"
func RecordBacktestRun(status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// UpdateBacktestAccuracy sets the accuracy for a confidence threshold label such as "0.60".
func UpdateBacktestAccuracy(threshold string, accuracy float64) {
	BacktestAccuracy.WithLabelValues(threshold).Set(accuracy)
}

// UpdateBacktestROI sets the flat-stake ROI for a bet threshold label.
func UpdateBacktestROI(threshold string, roi float64) {
	BacktestROI.WithLabelValues(threshold).Set(roi)
}
