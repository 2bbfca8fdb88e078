package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/courtside/internal/history/historytest"
	"github.com/yourusername/courtside/internal/models"
)

type fakeLogs struct {
	bySeason map[string][]models.PerformanceRecord
}

func (f fakeLogs) Name() string { return "fake" }

func (f fakeLogs) FetchGameLogs(_ context.Context, season string) ([]models.PerformanceRecord, error) {
	recs, ok := f.bySeason[season]
	if !ok {
		return nil, errors.New("season unavailable")
	}
	return recs, nil
}

type fakeRatings struct {
	err error
}

func (f fakeRatings) FetchRatings(_ context.Context, _ string, asOf time.Time) ([]models.RatingSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.RatingSnapshot{{Team: "LAL", NetRating: 3.5, AsOf: models.NormalizeDate(asOf)}}, nil
}

// memoryPerformance keeps upserts keyed like the database primary keys
type memoryPerformance struct {
	records map[string]models.PerformanceRecord
	ratings map[string]models.RatingSnapshot
	since   time.Time
}

func newMemoryPerformance() *memoryPerformance {
	return &memoryPerformance{
		records: make(map[string]models.PerformanceRecord),
		ratings: make(map[string]models.RatingSnapshot),
	}
}

func (m *memoryPerformance) UpsertRecords(_ context.Context, recs []models.PerformanceRecord) (int, error) {
	for _, r := range recs {
		m.records[r.Team+r.GameDate.Format(models.DateLayout)] = r
	}
	return len(recs), nil
}

func (m *memoryPerformance) RecordsSince(_ context.Context, from time.Time) ([]models.PerformanceRecord, error) {
	m.since = from
	var out []models.PerformanceRecord
	for _, r := range m.records {
		if !r.GameDate.Before(from) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryPerformance) UpsertRatings(_ context.Context, ratings []models.RatingSnapshot) (int, error) {
	for _, r := range ratings {
		m.ratings[r.Team+r.AsOf.Format(models.DateLayout)] = r
	}
	return len(ratings), nil
}

func (m *memoryPerformance) Ratings(context.Context) ([]models.RatingSnapshot, error) {
	out := make([]models.RatingSnapshot, 0, len(m.ratings))
	for _, r := range m.ratings {
		out = append(out, r)
	}
	return out, nil
}

func TestCSVHistoryLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")
	data := "GAME_DATE,TEAM_ABBREVIATION,MATCHUP,WL,PTS,PLUS_MINUS\n" +
		"2024-11-01,LAL,LAL vs. BOS,W,110,10\n" +
		"2024-11-01,BOS,BOS @ LAL,L,100,-10\n" +
		"2024-11-02,LAL,LAL vs. MIA,,110,10\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	src := NewCSVHistory(path, quietLogger())
	assert.Equal(t, "csv", src.Name())
	records, ratings, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Nil(t, ratings)

	_, _, err = NewCSVHistory(filepath.Join(t.TempDir(), "missing.csv"), quietLogger()).Load(context.Background())
	assert.Error(t, err)
}

func TestStatsHistoryAccumulatesRatings(t *testing.T) {
	logs := fakeLogs{bySeason: map[string][]models.PerformanceRecord{
		"2023-24": (&historytest.Builder{}).Game(historytest.Day(2024, 3, 1), "LAL", "BOS", 110, 100).Records(),
		"2024-25": (&historytest.Builder{}).Game(historytest.Day(2024, 11, 1), "BOS", "LAL", 120, 101).Records(),
	}}
	repo := newMemoryPerformance()
	day := historytest.Day(2025, 1, 9)
	now := func() time.Time { return day.Add(15 * time.Hour) }
	src := NewStatsHistory(logs, fakeRatings{}, []string{"2023-24", "2024-25"}, repo, now, quietLogger())

	records, ratings, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 4)
	require.Len(t, ratings, 1)
	assert.Equal(t, day, ratings[0].AsOf)

	day = day.AddDate(0, 0, 1)
	_, ratings, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ratings, 2)
	assert.Len(t, repo.records, 4)
}

func TestStatsHistoryRatingsFailureIsNonFatal(t *testing.T) {
	logs := fakeLogs{bySeason: map[string][]models.PerformanceRecord{
		"2024-25": (&historytest.Builder{}).Game(historytest.Day(2024, 11, 1), "BOS", "LAL", 120, 101).Records(),
	}}
	src := NewStatsHistory(logs, fakeRatings{err: errors.New("timeout")}, []string{"2024-25"}, nil, nil, quietLogger())

	records, ratings, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Empty(t, ratings)
}

func TestStatsHistoryGameLogFailure(t *testing.T) {
	src := NewStatsHistory(fakeLogs{}, fakeRatings{}, []string{"2024-25"}, nil, nil, quietLogger())
	_, _, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-25")

	_, _, err = NewStatsHistory(fakeLogs{}, fakeRatings{}, nil, nil, nil, quietLogger()).Load(context.Background())
	assert.Error(t, err)
}

func TestRepositoryHistoryUsesWindow(t *testing.T) {
	repo := newMemoryPerformance()
	_, err := repo.UpsertRecords(context.Background(), season())
	require.NoError(t, err)

	from := historytest.Day(2024, 12, 1)
	src := NewRepositoryHistory(repo, func() time.Time { return from })
	assert.Equal(t, "postgres", src.Name())

	records, _, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, from, repo.since)
	for _, r := range records {
		assert.False(t, r.GameDate.Before(from))
	}
	assert.NotEmpty(t, records)
}
