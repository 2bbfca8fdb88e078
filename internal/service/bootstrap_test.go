package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/history/historytest"
	"github.com/yourusername/courtside/internal/market"
	"github.com/yourusername/courtside/internal/models"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := LoadConfig(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("COURTSIDE_DECISION_MIN_MONEYLINE_EDGE", "1.5")
	_, err := LoadConfig(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSetupWithoutDatabase(t *testing.T) {
	cfg := defaultConfig(t)

	deps, err := Setup(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer deps.Close()

	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.Recommendations())
	assert.NotNil(t, deps.Catalog)
}

func TestSetupPostgresHistoryNeedsDatabase(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.History.Source = "postgres"

	_, err := Setup(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestDependenciesHistorySelection(t *testing.T) {
	cfg := defaultConfig(t)
	deps, err := Setup(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	src, err := deps.History("override.csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())
	assert.Equal(t, "override.csv", src.(*CSVHistory).Path)

	src, err = deps.History("")
	require.NoError(t, err)
	assert.Equal(t, cfg.History.CSVPath, src.(*CSVHistory).Path)

	cfg.History.CSVPath = ""
	_, err = deps.History("")
	assert.Error(t, err)

	cfg.History.Source = "stats"
	src, err = deps.History("")
	require.NoError(t, err)
	assert.Equal(t, "stats", src.Name())

	cfg.History.Source = "postgres"
	_, err = deps.History("")
	assert.Error(t, err)
}

func TestDependenciesQuotesFromFile(t *testing.T) {
	cfg := defaultConfig(t)
	path := filepath.Join(t.TempDir(), "book.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"date":"2025-01-15","games":[{"matchup":"BOS @ LAL"}]}]`), 0o600))
	cfg.Scanner.QuotesFile = path

	deps, err := Setup(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	src, err := deps.Quotes(context.Background())
	require.NoError(t, err)
	require.IsType(t, &market.Book{}, src)

	date, err := models.ParseDate("2025-01-15")
	require.NoError(t, err)
	games, err := src.Schedule(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "BOS @ LAL", games[0].Label())
}

func TestDependenciesQuotesDefaultsToEmptyBook(t *testing.T) {
	cfg := defaultConfig(t)
	deps, err := Setup(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	src, err := deps.Quotes(context.Background())
	require.NoError(t, err)

	games, err := src.Schedule(context.Background(), historytest.Day(2025, 1, 15))
	require.NoError(t, err)
	assert.Empty(t, games)
}
