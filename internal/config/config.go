// Package config provides configuration management for the courtside scanner.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig                 `mapstructure:"app" validate:"required"`
	History    HistoryConfig             `mapstructure:"history" validate:"required"`
	Database   DatabaseConfig            `mapstructure:"database"`
	Redis      RedisConfig               `mapstructure:"redis"`
	DataSource DataSourceConfig          `mapstructure:"data_source"`
	Features   FeaturesConfig            `mapstructure:"features" validate:"required"`
	Decision   DecisionConfig            `mapstructure:"decision" validate:"required"`
	Overrides  map[string]OverrideConfig `mapstructure:"overrides" validate:"dive,keys,len=3,uppercase,endkeys"`
	Models     ModelsConfig              `mapstructure:"models" validate:"required"`
	Scanner    ScannerConfig             `mapstructure:"scanner" validate:"required"`
	Backtest   BacktestConfig            `mapstructure:"backtest" validate:"required"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Server     ServerConfig              `mapstructure:"server"`
	Secrets    SecretsConfig             `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// HistoryConfig selects where performance records come from
type HistoryConfig struct {
	Source       string `mapstructure:"source" validate:"required,oneof=csv postgres stats"`
	CSVPath      string `mapstructure:"csv_path"`
	Seasons      int    `mapstructure:"seasons" validate:"gte=1,lte=10"`
	RefreshHours int    `mapstructure:"refresh_hours" validate:"gte=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int    `mapstructure:"min_connections" validate:"gte=0"`
}

// RedisConfig represents the market quote store
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
	Devig    bool   `mapstructure:"devig"`
}

// DataSourceConfig represents the external stats provider for game logs and ratings
type DataSourceConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	BaseURL        string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey         string  `mapstructure:"api_key"`
	Season         string  `mapstructure:"season" validate:"omitempty,season"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// FeaturesConfig represents feature engineering windows and toggles
type FeaturesConfig struct {
	RollingWindow     int      `mapstructure:"rolling_window" validate:"required,gt=0"`
	RollingMinPeriods int      `mapstructure:"rolling_min_periods" validate:"required,gt=0,ltefield=RollingWindow"`
	FormShort         int      `mapstructure:"form_short" validate:"required,gt=0"`
	FormLong          int      `mapstructure:"form_long" validate:"required,gtfield=FormShort"`
	H2HWindow         int      `mapstructure:"h2h_window" validate:"required,gt=0"`
	DaysRestDefault   float64  `mapstructure:"days_rest_default" validate:"gte=0"`
	DaysRestCap       float64  `mapstructure:"days_rest_cap" validate:"required,gt=0"`
	LongRoadTripMiles float64  `mapstructure:"long_road_trip_miles" validate:"required,gt=0"`
	Families          []string `mapstructure:"families" validate:"required,min=1"`
	CacheTTLMinutes   int      `mapstructure:"cache_ttl_minutes" validate:"gte=0"`
}

// DecisionConfig represents the versioned decision thresholds
type DecisionConfig struct {
	Version              string  `mapstructure:"version" validate:"required"`
	MinMoneylineEdge     float64 `mapstructure:"min_moneyline_edge" validate:"gt=0,lt=1"`
	MinSpreadCoverage    float64 `mapstructure:"min_spread_coverage" validate:"gte=0"`
	SpreadEdgeDivisor    float64 `mapstructure:"spread_edge_divisor" validate:"gt=0"`
	HighConfidenceEdge   float64 `mapstructure:"high_confidence_edge" validate:"gt=0"`
	MediumConfidenceEdge float64 `mapstructure:"medium_confidence_edge" validate:"gt=0"`
	ProbabilityFloor     float64 `mapstructure:"probability_floor" validate:"gt=0,lt=0.5"`
	ProbabilityCeiling   float64 `mapstructure:"probability_ceiling" validate:"gt=0.5,lt=1"`
	SignalThreshold      float64 `mapstructure:"signal_threshold" validate:"gte=0"`
	QuoteMinProbability  float64 `mapstructure:"quote_min_probability" validate:"gte=0,lt=1"`
	QuoteMaxProbability  float64 `mapstructure:"quote_max_probability" validate:"gt=0,lte=1"`
	QuoteMaxAgeMinutes   int     `mapstructure:"quote_max_age_minutes" validate:"gte=0"`
}

// OverrideConfig is a manual penalty for a team missing key personnel
type OverrideConfig struct {
	Player  string  `mapstructure:"player" validate:"required"`
	Penalty float64 `mapstructure:"penalty" validate:"gt=0,lt=1"`
}

// ModelsConfig represents model artifact locations and training settings
type ModelsConfig struct {
	OutcomePath      string  `mapstructure:"outcome_path" validate:"required"`
	MarginPath       string  `mapstructure:"margin_path"`
	SearchEnabled    bool    `mapstructure:"search_enabled"`
	SearchIterations int     `mapstructure:"search_iterations" validate:"gte=0"`
	SearchWorkers    int     `mapstructure:"search_workers" validate:"gte=0"`
	Folds            int     `mapstructure:"folds" validate:"required,gte=2"`
	TestSize         float64 `mapstructure:"test_size" validate:"gt=0,lt=1"`
	Seed             int64   `mapstructure:"seed"`
	MinHistory       int     `mapstructure:"min_history" validate:"gte=0"`
}

// ScannerConfig represents the scan cycle
type ScannerConfig struct {
	Schedule            string `mapstructure:"schedule" validate:"required,cron"`
	BatchTimeoutSeconds int    `mapstructure:"batch_timeout_seconds" validate:"required,gt=0"`
	Workers             int    `mapstructure:"workers" validate:"required,gt=0"`
	TopPicks            int    `mapstructure:"top_picks" validate:"gte=0"`
	QuotesFile          string `mapstructure:"quotes_file"`
}

// BacktestConfig represents hold-out evaluation settings
type BacktestConfig struct {
	AccuracyThresholds []float64 `mapstructure:"accuracy_thresholds" validate:"required,min=1,dive,gte=0.5,lt=1"`
	BetThresholds      []float64 `mapstructure:"bet_thresholds" validate:"required,min=1,dive,gte=0.5,lt=1"`
	Stake              float64   `mapstructure:"stake" validate:"required,gt=0"`
	AmericanOdds       int       `mapstructure:"american_odds" validate:"required,ne=0"`
	Months             int       `mapstructure:"months" validate:"gte=0"`
	TestSize           float64   `mapstructure:"test_size" validate:"gt=0,lt=1"`
	WalkForward        bool      `mapstructure:"walk_forward"`
	Bootstrap          int       `mapstructure:"bootstrap_iterations" validate:"gte=0"`
	OutputPath         string    `mapstructure:"output_path"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ServerConfig represents the analyze API
type ServerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	Address             string `mapstructure:"address" validate:"required_if=Enabled true"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" validate:"gte=0"`
}

// SecretsConfig locates the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN renders the connection settings as a postgres URL with credentials escaped
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// BatchTimeout returns the scan batch timeout
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.Scanner.BatchTimeoutSeconds) * time.Second
}

// QuoteMaxAge returns the oldest acceptable market quote age
func (c *Config) QuoteMaxAge() time.Duration {
	return time.Duration(c.Decision.QuoteMaxAgeMinutes) * time.Minute
}

// FeatureCacheTTL returns how long built feature vectors are memoized
func (c *Config) FeatureCacheTTL() time.Duration {
	return time.Duration(c.Features.CacheTTLMinutes) * time.Minute
}
