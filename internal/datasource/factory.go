package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/teams"
)

// Factory creates data source clients based on configuration
type Factory struct {
	logger *logrus.Logger
	config config.DataSourceConfig
}

// NewFactory creates a new data source factory
func NewFactory(cfg config.DataSourceConfig, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClientConfig derives the client settings from configuration, keeping defaults for unset values
func (f *Factory) HTTPClientConfig() HTTPClientConfig {
	httpCfg := DefaultHTTPClientConfig()
	if f.config.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(f.config.TimeoutSeconds) * time.Second
	}
	if f.config.MaxRetries > 0 {
		httpCfg.MaxRetries = f.config.MaxRetries
	}
	if f.config.RateLimit > 0 {
		httpCfg.RateLimit = f.config.RateLimit
	}
	return httpCfg
}

// NewStatsClient creates the stats client with its own rate-limited HTTP client
func (f *Factory) NewStatsClient(catalog *teams.Catalog) (*StatsClient, error) {
	if catalog == nil {
		return nil, fmt.Errorf("team catalog is required")
	}
	if f.config.BaseURL == "" {
		return nil, fmt.Errorf("data source base_url is required")
	}

	httpClient := NewRateLimitedHTTPClient(f.HTTPClientConfig(), f.logger)
	client := NewStatsClient(httpClient, f.config.BaseURL, f.config.APIKey, f.config.Enabled, catalog, f.logger)
	if f.logger != nil {
		f.logger.WithFields(logrus.Fields{
			"source":   client.Name(),
			"base_url": f.config.BaseURL,
			"enabled":  f.config.Enabled,
		}).Info("Created data source")
	}
	return client, nil
}

// Seasons returns the configured current season and the n-1 before it
func (f *Factory) Seasons(n int) ([]string, error) {
	return SeasonLabels(f.config.Season, n)
}
