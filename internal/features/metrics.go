package features

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeatureCacheHitRatio tracks the feature vector cache hit ratio
	FeatureCacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feature_cache_hit_ratio",
			Help: "Feature vector cache hit ratio",
		},
	)
)
