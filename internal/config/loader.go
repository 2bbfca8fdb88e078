package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "COURTSIDE"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// ReloadFromEnv reloads the configuration from COURTSIDE_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// viper lowercases map keys; team codes are uppercase
	if len(cfg.Overrides) > 0 {
		overrides := make(map[string]OverrideConfig, len(cfg.Overrides))
		for team, o := range cfg.Overrides {
			overrides[strings.ToUpper(team)] = o
		}
		cfg.Overrides = overrides
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides bind without a file
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "courtside")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")

	v.SetDefault("history.source", "csv")
	v.SetDefault("history.csv_path", "data/nba_training_data.csv")
	v.SetDefault("history.seasons", 2)
	v.SetDefault("history.refresh_hours", 24)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "courtside")
	v.SetDefault("database.user", "courtside")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.prefix", "courtside")
	v.SetDefault("redis.devig", false)

	v.SetDefault("data_source.enabled", false)
	v.SetDefault("data_source.base_url", "https://stats.nba.com/stats")
	v.SetDefault("data_source.api_key", "")
	v.SetDefault("data_source.season", "2024-25")
	v.SetDefault("data_source.timeout_seconds", 30)
	v.SetDefault("data_source.max_retries", 5)
	v.SetDefault("data_source.rate_limit", 1.0)

	v.SetDefault("features.rolling_window", 10)
	v.SetDefault("features.rolling_min_periods", 3)
	v.SetDefault("features.form_short", 3)
	v.SetDefault("features.form_long", 5)
	v.SetDefault("features.h2h_window", 3)
	v.SetDefault("features.days_rest_default", 2)
	v.SetDefault("features.days_rest_cap", 7)
	v.SetDefault("features.long_road_trip_miles", 1500)
	v.SetDefault("features.families", []string{
		"schedule", "rolling", "opponent", "streak", "travel",
		"season", "h2h", "form", "scoring", "interactions",
	})
	v.SetDefault("features.cache_ttl_minutes", 30)

	v.SetDefault("decision.version", "v1")
	v.SetDefault("decision.min_moneyline_edge", 0.05)
	v.SetDefault("decision.min_spread_coverage", 2.5)
	v.SetDefault("decision.spread_edge_divisor", 20)
	v.SetDefault("decision.high_confidence_edge", 0.10)
	v.SetDefault("decision.medium_confidence_edge", 0.05)
	v.SetDefault("decision.probability_floor", 0.01)
	v.SetDefault("decision.probability_ceiling", 0.99)
	v.SetDefault("decision.signal_threshold", 0.05)
	v.SetDefault("decision.quote_min_probability", 0.05)
	v.SetDefault("decision.quote_max_probability", 0.95)
	v.SetDefault("decision.quote_max_age_minutes", 360)

	v.SetDefault("models.outcome_path", "models/outcome.json")
	v.SetDefault("models.margin_path", "models/margin.json")
	v.SetDefault("models.search_enabled", true)
	v.SetDefault("models.search_iterations", 20)
	v.SetDefault("models.search_workers", 4)
	v.SetDefault("models.folds", 5)
	v.SetDefault("models.test_size", 0.2)
	v.SetDefault("models.seed", 42)
	v.SetDefault("models.min_history", 5)

	v.SetDefault("scanner.schedule", "*/30 * * * *")
	v.SetDefault("scanner.batch_timeout_seconds", 120)
	v.SetDefault("scanner.workers", 4)
	v.SetDefault("scanner.top_picks", 5)
	v.SetDefault("scanner.quotes_file", "")

	v.SetDefault("backtest.accuracy_thresholds", []float64{0.50, 0.55, 0.60, 0.65, 0.70})
	v.SetDefault("backtest.bet_thresholds", []float64{0.55, 0.60, 0.65})
	v.SetDefault("backtest.stake", 100)
	v.SetDefault("backtest.american_odds", -110)
	v.SetDefault("backtest.months", 6)
	v.SetDefault("backtest.test_size", 0.2)
	v.SetDefault("backtest.walk_forward", false)
	v.SetDefault("backtest.bootstrap_iterations", 1000)
	v.SetDefault("backtest.output_path", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)

	v.SetDefault("secrets.enabled", false)
	v.SetDefault("secrets.region", "us-east-1")
	v.SetDefault("secrets.secret_name", "")
}
