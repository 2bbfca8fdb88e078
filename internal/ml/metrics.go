package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MLPredictionsTotal tracks model predictions by outcome
	MLPredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of model predictions made",
		},
		[]string{"model_type", "status"}, // success, not_ready, feature_mismatch
	)

	// MLPredictionLatency tracks model prediction latency
	MLPredictionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ml_prediction_latency_seconds",
			Help:    "Model prediction latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
		[]string{"model_type"},
	)

	// MLTrainingJobsTotal tracks training jobs
	MLTrainingJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_training_jobs_total",
			Help: "Total number of ML training jobs",
		},
		[]string{"model_type", "status"},
	)

	// MLTrainingDuration tracks how long training jobs take
	MLTrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ml_training_duration_seconds",
			Help:    "ML training job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"model_type"},
	)

	// MLSearchCandidatesTotal tracks evaluated hyperparameter candidates
	MLSearchCandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_search_candidates_total",
			Help: "Total number of hyperparameter candidates evaluated",
		},
		[]string{"model_type"},
	)

	// MLModelScore exposes the latest evaluation scores of each loaded model
	MLModelScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ml_model_score",
			Help: "Latest evaluation score of a trained model",
		},
		[]string{"model_type", "metric"},
	)
)
