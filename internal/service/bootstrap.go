package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/datasource"
	"github.com/yourusername/courtside/internal/market"
	"github.com/yourusername/courtside/internal/repository"
	"github.com/yourusername/courtside/internal/teams"
)

// LoadConfig reads the configuration file, applies the secrets overlay and validates the result
func LoadConfig(ctx context.Context, path string) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Dependencies holds the connections and sources shared by the entry points
type Dependencies struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Catalog *teams.Catalog
	DB      *database.DB
	Repos   *repository.Repositories
	closers []func()
}

// Setup connects to the database when enabled. Other sources are built on demand.
func Setup(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Catalog: teams.NBA(),
	}

	if cfg.History.Source == "postgres" && !cfg.Database.Enabled {
		return nil, fmt.Errorf("history source postgres requires database.enabled")
	}

	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.closers = append(deps.closers, db.Close)
		deps.DB = db

		repos, err := repository.NewRepositories(db)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize repositories: %w", err)
		}
		deps.Repos = repos
	}

	return deps, nil
}

// History builds the configured history source. A non-empty csvPath forces a
// CSV source regardless of configuration.
func (d *Dependencies) History(csvPath string) (HistorySource, error) {
	cfg := d.Config
	if csvPath != "" {
		return NewCSVHistory(csvPath, d.Logger), nil
	}

	switch cfg.History.Source {
	case "csv":
		if cfg.History.CSVPath == "" {
			return nil, fmt.Errorf("history.csv_path is required for the csv source")
		}
		return NewCSVHistory(cfg.History.CSVPath, d.Logger), nil
	case "postgres":
		if d.Repos == nil {
			return nil, fmt.Errorf("history source postgres requires a database connection")
		}
		window := cfg.History
		return NewRepositoryHistory(d.Repos.Performance, func() time.Time {
			return HistoryWindow(window, time.Now())
		}), nil
	case "stats":
		factory := datasource.NewFactory(cfg.DataSource, d.Logger)
		client, err := factory.NewStatsClient(d.Catalog)
		if err != nil {
			return nil, err
		}
		seasons, err := factory.Seasons(cfg.History.Seasons)
		if err != nil {
			return nil, err
		}
		var repo repository.PerformanceRepository
		if d.Repos != nil {
			repo = d.Repos.Performance
		}
		return NewStatsHistory(client, client, seasons, repo, nil, d.Logger), nil
	default:
		return nil, fmt.Errorf("unknown history source %q", cfg.History.Source)
	}
}

// Quotes builds the market source: Redis when enabled, else the configured
// quotes file, else an empty book.
func (d *Dependencies) Quotes(ctx context.Context) (market.Source, error) {
	cfg := d.Config
	if cfg.Redis.Enabled {
		client, err := market.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = client.Close() })
		d.Logger.WithField("prefix", cfg.Redis.Prefix).Info("Using redis market source")
		return market.NewRedisSource(client, cfg.Redis.Prefix, cfg.Redis.Devig), nil
	}

	if cfg.Scanner.QuotesFile != "" {
		book, err := market.LoadBookFile(cfg.Scanner.QuotesFile, cfg.Redis.Devig)
		if err != nil {
			return nil, err
		}
		d.Logger.WithField("path", cfg.Scanner.QuotesFile).Info("Using file market source")
		return book, nil
	}

	d.Logger.Warn("No market source configured, scans will have no matchups")
	return market.NewBook(cfg.Redis.Devig), nil
}

// Recommendations returns the recommendation store, or nil without a database
func (d *Dependencies) Recommendations() repository.RecommendationRepository {
	if d.Repos == nil {
		return nil
	}
	return d.Repos.Recommendation
}

// Close releases connections in reverse order of creation
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
