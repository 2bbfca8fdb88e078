package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/datasource"
	"github.com/yourusername/courtside/internal/history"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/repository"
)

// HistorySource supplies the records and ratings a snapshot is built from
type HistorySource interface {
	Load(ctx context.Context) ([]models.PerformanceRecord, []models.RatingSnapshot, error)
	Name() string
}

// CSVHistory reads a collector CSV export. It carries no rating snapshots, so
// net ratings fall back to season margins.
type CSVHistory struct {
	Path   string
	logger *logrus.Entry
}

// NewCSVHistory creates a CSV history source
func NewCSVHistory(path string, logger *logrus.Logger) *CSVHistory {
	return &CSVHistory{Path: path, logger: logger.WithField("component", "history")}
}

// Name returns the source name
func (c *CSVHistory) Name() string { return "csv" }

// Load reads every record from the file
func (c *CSVHistory) Load(_ context.Context) ([]models.PerformanceRecord, []models.RatingSnapshot, error) {
	records, report, err := history.ReadCSVFile(c.Path)
	if err != nil {
		return nil, nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"path":    c.Path,
		"rows":    report.Rows,
		"loaded":  report.Loaded,
		"skipped": report.Skipped,
	}).Info("History file read")
	return records, nil, nil
}

// RepositoryHistory reads stored records from the configured window onward
type RepositoryHistory struct {
	repo  repository.PerformanceRepository
	since func() time.Time
}

// NewRepositoryHistory creates a database history source. since is evaluated on every load.
func NewRepositoryHistory(repo repository.PerformanceRepository, since func() time.Time) *RepositoryHistory {
	return &RepositoryHistory{repo: repo, since: since}
}

// Name returns the source name
func (r *RepositoryHistory) Name() string { return "postgres" }

// Load queries records and every stored rating snapshot
func (r *RepositoryHistory) Load(ctx context.Context) ([]models.PerformanceRecord, []models.RatingSnapshot, error) {
	records, err := r.repo.RecordsSince(ctx, r.since())
	if err != nil {
		return nil, nil, err
	}
	ratings, err := r.repo.Ratings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return records, ratings, nil
}

// StatsHistory pulls game logs and today's ratings from the stats provider. With a
// repository attached, each pull is stored and ratings are read back so snapshots
// taken on earlier days stay available.
type StatsHistory struct {
	logs    datasource.GameLogSource
	ratings datasource.RatingsSource
	seasons []string
	repo    repository.PerformanceRepository
	now     func() time.Time
	logger  *logrus.Entry
}

// NewStatsHistory creates a stats history source. repo may be nil.
func NewStatsHistory(
	logs datasource.GameLogSource,
	ratings datasource.RatingsSource,
	seasons []string,
	repo repository.PerformanceRepository,
	now func() time.Time,
	logger *logrus.Logger,
) *StatsHistory {
	if now == nil {
		now = time.Now
	}
	return &StatsHistory{
		logs:    logs,
		ratings: ratings,
		seasons: seasons,
		repo:    repo,
		now:     now,
		logger:  logger.WithField("component", "history"),
	}
}

// Name returns the source name
func (s *StatsHistory) Name() string { return "stats" }

// Load fetches every configured season and the current ratings
func (s *StatsHistory) Load(ctx context.Context) ([]models.PerformanceRecord, []models.RatingSnapshot, error) {
	if len(s.seasons) == 0 {
		return nil, nil, fmt.Errorf("no seasons configured")
	}
	records, err := datasource.CollectSeasons(ctx, s.logs, s.seasons)
	if err != nil {
		return nil, nil, err
	}

	current := s.seasons[len(s.seasons)-1]
	ratings, err := s.ratings.FetchRatings(ctx, current, s.now())
	if err != nil {
		// game logs alone still produce a usable snapshot
		s.logger.WithError(err).Warn("Failed to fetch ratings, continuing without")
		ratings = nil
	}

	if s.repo == nil {
		return records, ratings, nil
	}
	if _, err := s.repo.UpsertRecords(ctx, records); err != nil {
		return nil, nil, err
	}
	if _, err := s.repo.UpsertRatings(ctx, ratings); err != nil {
		return nil, nil, err
	}
	stored, err := s.repo.Ratings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return records, stored, nil
}
