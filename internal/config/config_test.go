package config

import (
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validConfigPath   = "testdata/valid_config.yaml"
	invalidConfigPath = "testdata/invalid_config.yaml"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg
}

func TestShippedConfigHasNoOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("REDIS_PASSWORD", "secret")

	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Empty(t, cfg.Overrides)
}

func TestLoadConfigSuccess(t *testing.T) {
	cfg := loadValid(t)

	assert.Equal(t, "courtside", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "csv", cfg.History.Source)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Redis.Devig)
	assert.Equal(t, "v2", cfg.Decision.Version)
	assert.InDelta(t, 0.04, cfg.Decision.MinMoneylineEdge, 1e-12)
	assert.Equal(t, 8, cfg.Scanner.Workers)

	require.Contains(t, cfg.Overrides, "LAL")
	assert.Equal(t, "Star Player", cfg.Overrides["LAL"].Player)
	assert.InDelta(t, 0.15, cfg.Overrides["LAL"].Penalty, 1e-12)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg := loadValid(t)

	// keys absent from the file fall back to defaults
	assert.InDelta(t, 2.5, cfg.Decision.MinSpreadCoverage, 1e-12)
	assert.InDelta(t, 0.10, cfg.Decision.HighConfidenceEdge, 1e-12)
	assert.Equal(t, 10, cfg.Features.RollingWindow)
	assert.Len(t, cfg.Features.Families, 10)
	assert.Equal(t, []float64{0.50, 0.55, 0.60, 0.65, 0.70}, cfg.Backtest.AccuracyThresholds)
	assert.Equal(t, -110, cfg.Backtest.AmericanOdds)
	assert.Equal(t, 5, cfg.Models.Folds)
	assert.Equal(t, int64(42), cfg.Models.Seed)
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("testdata/nonexistent_config.yaml")
	assert.Error(t, err)
}

func TestLoadWithDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "courtside", cfg.App.Name)
	assert.Equal(t, "*/30 * * * *", cfg.Scanner.Schedule)
	assert.NoError(t, Validate(cfg))
}

func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("COURTSIDE_APP_NAME", "courtside-test")
	t.Setenv("COURTSIDE_DECISION_MIN_SPREAD_COVERAGE", "3.5")

	cfg := loadValid(t)
	assert.Equal(t, "courtside-test", cfg.App.Name)
	assert.InDelta(t, 3.5, cfg.Decision.MinSpreadCoverage, 1e-12)
}

func TestLoadConfigExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")

	cfg := loadValid(t)
	assert.Equal(t, "expanded_secret_value", cfg.Database.Password)
}

func TestReloadFromEnv(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	t.Setenv("COURTSIDE_CONFIG_PATH", validConfigPath)
	require.NoError(t, ReloadFromEnv(cfg))
	assert.Equal(t, "v2", cfg.Decision.Version)
}

func TestValidateSuccess(t *testing.T) {
	assert.NoError(t, Validate(loadValid(t)))
}

func TestValidateInvalidFile(t *testing.T) {
	cfg, err := Load(invalidConfigPath)
	require.NoError(t, err)

	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Environment")
	assert.Contains(t, err.Error(), "LogLevel")
	assert.Contains(t, err.Error(), "Schedule")
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad season label",
			mutate:  func(c *Config) { c.DataSource.Season = "2024-26" },
			wantErr: "season label",
		},
		{
			name:    "lowercase override team",
			mutate:  func(c *Config) { c.Overrides["lal"] = OverrideConfig{Player: "X", Penalty: 0.1} },
			wantErr: "Overrides",
		},
		{
			name:    "override penalty out of range",
			mutate:  func(c *Config) { c.Overrides["LAL"] = OverrideConfig{Player: "X", Penalty: 1.5} },
			wantErr: "Penalty",
		},
		{
			name: "confidence tiers inverted",
			mutate: func(c *Config) {
				c.Decision.HighConfidenceEdge = 0.04
			},
			wantErr: "high_confidence_edge",
		},
		{
			name: "quote bounds inverted",
			mutate: func(c *Config) {
				c.Decision.QuoteMinProbability = 0.9
				c.Decision.QuoteMaxProbability = 0.5
			},
			wantErr: "quote_min_probability",
		},
		{
			name:    "csv source without path",
			mutate:  func(c *Config) { c.History.CSVPath = "" },
			wantErr: "csv_path",
		},
		{
			name:    "postgres source without database",
			mutate:  func(c *Config) { c.History.Source = "postgres" },
			wantErr: "database",
		},
		{
			name: "production without ssl",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Database.Enabled = true
				c.Database.SSLMode = "disable"
			},
			wantErr: "SSL",
		},
		{
			name: "production with test api key",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.DataSource.Enabled = true
				c.DataSource.APIKey = "YOUR_KEY_HERE"
			},
			wantErr: "test data source API key",
		},
		{
			name:    "non-positive workers",
			mutate:  func(c *Config) { c.Scanner.Workers = 0 },
			wantErr: "Workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := loadValid(t)
	assert.Equal(t, "2m0s", cfg.BatchTimeout().String())
	assert.Equal(t, "6h0m0s", cfg.QuoteMaxAge().String())
	assert.Equal(t, "30m0s", cfg.FeatureCacheTTL().String())
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := loadValid(t)
	cfg.Database.Password = "pw"
	assert.Equal(t, "postgres://courtside:pw@localhost:5432/courtside?sslmode=disable", cfg.GetDatabaseDSN())
}

func TestParseSecretData(t *testing.T) {
	out, err := parseSecretData(&secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"database_password":"db","redis_password":"rd","data_source_api_key":"key"}`),
	})
	require.NoError(t, err)

	cfg := loadValid(t)
	overlaySecretsOnConfig(cfg, out)
	assert.Equal(t, "db", cfg.Database.Password)
	assert.Equal(t, "rd", cfg.Redis.Password)
	assert.Equal(t, "key", cfg.DataSource.APIKey)

	_, err = parseSecretData(&secretsmanager.GetSecretValueOutput{})
	assert.ErrorIs(t, err, errNoSecretDataFound)
}

func TestOverlayKeepsExistingValues(t *testing.T) {
	cfg := loadValid(t)
	cfg.Redis.Password = "keep"
	overlaySecretsOnConfig(cfg, &SecretsOverlay{DatabasePassword: "db"})
	assert.Equal(t, "keep", cfg.Redis.Password)
}
