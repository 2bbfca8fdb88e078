package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/history"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/teams"
)

const (
	statsSourceName       = "stats"
	dataSourceDisabledMsg = "data source is disabled"
	seasonTypeRegular     = "Regular Season"
	colTeamName           = "TEAM_NAME"
	colNetRating          = "E_NET_RATING"
)

var seasonLabel = regexp.MustCompile(`^(\d{4})-\d{2}$`)

// resultSet is the tabular payload shape returned by the stats endpoints
type resultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

type statsResponse struct {
	ResultSets []resultSet `json:"resultSets"`
	ResultSet  *resultSet  `json:"resultSet"`
}

func (r statsResponse) first() (resultSet, bool) {
	if len(r.ResultSets) > 0 {
		return r.ResultSets[0], true
	}
	if r.ResultSet != nil {
		return *r.ResultSet, true
	}
	return resultSet{}, false
}

// StatsClient reads league game logs and estimated team ratings
type StatsClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	catalog    *teams.Catalog
	logger     *logrus.Entry
}

// NewStatsClient creates a new stats API client
func NewStatsClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, enabled bool, catalog *teams.Catalog, logger *logrus.Logger) *StatsClient {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &StatsClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		enabled:    enabled,
		catalog:    catalog,
		logger:     logger.WithField("component", "datasource"),
	}
}

// Name returns the name of the data source
func (c *StatsClient) Name() string {
	return statsSourceName
}

// FetchGameLogs retrieves every completed regular season team game for season.
// Games without a result yet are skipped.
func (c *StatsClient) FetchGameLogs(ctx context.Context, season string) ([]models.PerformanceRecord, error) {
	set, err := c.fetch(ctx, "leaguegamefinder", url.Values{
		"LeagueID":     {"00"},
		"PlayerOrTeam": {"T"},
		"Season":       {season},
		"SeasonType":   {seasonTypeRegular},
	})
	if err != nil {
		return nil, err
	}

	records, report, err := history.ReadRows(set.Headers, stringRows(set.RowSet))
	if err != nil {
		return nil, NewDataSourceError(statsSourceName, ErrCodeInvalidData, "failed to parse game logs", err)
	}

	c.logger.WithFields(logrus.Fields{
		"season":  season,
		"rows":    report.Rows,
		"loaded":  report.Loaded,
		"skipped": report.Skipped,
	}).Info("Fetched game logs")
	return records, nil
}

// FetchRatings retrieves the current estimated net rating of every team, stamped asOf.
// Team names the catalog cannot resolve are skipped.
func (c *StatsClient) FetchRatings(ctx context.Context, season string, asOf time.Time) ([]models.RatingSnapshot, error) {
	set, err := c.fetch(ctx, "teamestimatedmetrics", url.Values{
		"LeagueID":   {"00"},
		"Season":     {season},
		"SeasonType": {seasonTypeRegular},
	})
	if err != nil {
		return nil, err
	}

	nameCol, ratingCol := -1, -1
	for i, h := range set.Headers {
		switch strings.ToUpper(h) {
		case colTeamName:
			nameCol = i
		case colNetRating:
			ratingCol = i
		}
	}
	if nameCol < 0 || ratingCol < 0 {
		return nil, NewDataSourceError(statsSourceName, ErrCodeInvalidData,
			fmt.Sprintf("ratings missing %s or %s column", colTeamName, colNetRating), nil)
	}

	day := models.NormalizeDate(asOf)
	snapshots := make([]models.RatingSnapshot, 0, len(set.RowSet))
	for _, row := range stringRows(set.RowSet) {
		if nameCol >= len(row) || ratingCol >= len(row) {
			continue
		}
		code, ok := c.catalog.CodeForName(row[nameCol])
		if !ok {
			c.logger.WithField("team_name", row[nameCol]).Warn("Skipping rating for unknown team")
			continue
		}
		rating, err := strconv.ParseFloat(row[ratingCol], 64)
		if err != nil {
			c.logger.WithField("team", code).Warn("Skipping rating with invalid value")
			continue
		}
		snapshots = append(snapshots, models.RatingSnapshot{Team: code, NetRating: rating, AsOf: day})
	}
	return snapshots, nil
}

func (c *StatsClient) fetch(ctx context.Context, endpoint string, params url.Values) (resultSet, error) {
	if !c.enabled {
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeDisabled, dataSourceDisabledMsg, nil)
	}

	headers := map[string]string{
		"Accept":             "application/json",
		"Referer":            "https://www.nba.com/",
		"x-nba-stats-origin": "stats",
	}
	if c.apiKey != "" {
		headers["X-API-Key"] = c.apiKey
	}

	endpointURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	resp, err := c.httpClient.Get(ctx, endpointURL, headers)
	if err != nil {
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeNetworkError, "failed to fetch "+endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeAuthenticationFailed, "request rejected", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeNotFound, endpoint+" not found", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}
	set, ok := payload.first()
	if !ok {
		return resultSet{}, NewDataSourceError(statsSourceName, ErrCodeInvalidData, endpoint+" returned no result set", nil)
	}
	return set, nil
}

// stringRows renders JSON cells the way a CSV export would
func stringRows(rows [][]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case nil:
				cells[j] = ""
			case string:
				cells[j] = v
			case float64:
				cells[j] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				cells[j] = strconv.FormatBool(v)
			default:
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}

// SeasonLabels returns the n season labels ending at current, oldest first
func SeasonLabels(current string, n int) ([]string, error) {
	m := seasonLabel.FindStringSubmatch(current)
	if m == nil {
		return nil, fmt.Errorf("invalid season label %q", current)
	}
	start, _ := strconv.Atoi(m[1])
	if n < 1 {
		n = 1
	}
	labels := make([]string, 0, n)
	for y := start - n + 1; y <= start; y++ {
		labels = append(labels, fmt.Sprintf("%d-%02d", y, (y+1)%100))
	}
	return labels, nil
}

// CollectSeasons fetches game logs for each season in order and concatenates them
func CollectSeasons(ctx context.Context, src GameLogSource, seasons []string) ([]models.PerformanceRecord, error) {
	var all []models.PerformanceRecord
	for _, season := range seasons {
		records, err := src.FetchGameLogs(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("%s season %s: %w", src.Name(), season, err)
		}
		all = append(all, records...)
	}
	return all, nil
}
