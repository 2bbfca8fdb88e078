package decision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal tracks analyzed matchups by status and side
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisions_total",
			Help: "Total number of matchups analyzed",
		},
		[]string{"status", "side"},
	)

	// DecisionLatency tracks per-matchup analysis latency
	DecisionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decision_latency_seconds",
			Help:    "Per-matchup analysis latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	// SignalEdge tracks the edge of emitted signals
	SignalEdge = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decision_signal_edge",
			Help:    "Edge of emitted signals",
			Buckets: []float64{0.05, 0.075, 0.1, 0.15, 0.2, 0.3},
		},
	)

	// QuotesRejectedTotal tracks market quotes rejected as stale
	QuotesRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decision_quotes_rejected_total",
			Help: "Total number of market quotes rejected as stale or implausible",
		},
	)
)
