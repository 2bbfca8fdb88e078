package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yourusername/courtside/internal/models"
)

// Odds and schedule entries expire after a day
const redisTTL = 36 * time.Hour

// Hash fields of an odds entry
const (
	fieldAmerican    = "american"
	fieldDecimal     = "decimal"
	fieldProbability = "probability"
	fieldSpread      = "spread"
	fieldObservedAt  = "observed_at"
	fieldSource      = "source"
)

// NewRedisClient parses a redis URL, overrides the password when set and
// checks the connection
func NewRedisClient(ctx context.Context, url, password string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisSource reads the schedule and per-team odds published by the odds
// collector.
//
//	{prefix}:schedule:{date}       list of "AWY @ HOM"
//	{prefix}:odds:{date}:{team}    hash of american|decimal|probability, spread, observed_at, source
type RedisSource struct {
	client *redis.Client
	prefix string
	devig  bool
}

// NewRedisSource creates a source over client
func NewRedisSource(client *redis.Client, prefix string, devig bool) *RedisSource {
	if prefix == "" {
		prefix = "courtside"
	}
	return &RedisSource{client: client, prefix: prefix, devig: devig}
}

func (s *RedisSource) scheduleKey(date time.Time) string {
	return fmt.Sprintf("%s:schedule:%s", s.prefix, models.NormalizeDate(date).Format(models.DateLayout))
}

func (s *RedisSource) oddsKey(date time.Time, team string) string {
	return fmt.Sprintf("%s:odds:%s:%s", s.prefix, models.NormalizeDate(date).Format(models.DateLayout), team)
}

// Schedule reads the matchups listed for date. An entry that does not label
// home and away fails the read.
func (s *RedisSource) Schedule(ctx context.Context, date time.Time) ([]models.Matchup, error) {
	raw, err := s.client.LRange(ctx, s.scheduleKey(date), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	out := make([]models.Matchup, 0, len(raw))
	for _, entry := range raw {
		m, err := models.ParseMatchup(entry, date)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Quotes reads both teams' odds for m in one round trip
func (s *RedisSource) Quotes(ctx context.Context, m models.Matchup) (models.MatchupQuotes, error) {
	pipe := s.client.Pipeline()
	homeCmd := pipe.HGetAll(ctx, s.oddsKey(m.Date, m.Home))
	awayCmd := pipe.HGetAll(ctx, s.oddsKey(m.Date, m.Away))
	if _, err := pipe.Exec(ctx); err != nil {
		return models.MatchupQuotes{}, fmt.Errorf("failed to read odds for %s: %w", m.Label(), err)
	}
	home, err := parseOdds(m.Home, homeCmd.Val())
	if err != nil {
		return models.MatchupQuotes{}, err
	}
	away, err := parseOdds(m.Away, awayCmd.Val())
	if err != nil {
		return models.MatchupQuotes{}, err
	}
	return BuildQuotes(m, home, away, s.devig)
}

// WriteSchedule replaces the schedule for date
func (s *RedisSource) WriteSchedule(ctx context.Context, date time.Time, matchups []models.Matchup) error {
	key := s.scheduleKey(date)
	values := make([]interface{}, len(matchups))
	for i, m := range matchups {
		values[i] = m.Label()
	}
	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.RPush(ctx, key, values...)
	}
	pipe.Expire(ctx, key, redisTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// WriteOdds stores one team's odds for date
func (s *RedisSource) WriteOdds(ctx context.Context, date time.Time, odds TeamOdds) error {
	key := s.oddsKey(date, odds.Team)
	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, encodeOdds(odds))
	pipe.Expire(ctx, key, redisTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Import publishes the schedule and odds of every day in a book file and
// returns the number of matchups written. Odds without a team take the
// matchup side they are listed under.
func (s *RedisSource) Import(ctx context.Context, days []BookDay) (int, error) {
	slates := make(map[string][]models.Matchup)
	var order []string
	odds := make(map[string][]TeamOdds)
	err := eachBookGame(days, func(m models.Matchup, home, away *TeamOdds) error {
		home, away = withTeam(home, m.Home), withTeam(away, m.Away)
		if _, err := BuildQuotes(m, home, away, s.devig); err != nil {
			return err
		}
		key := m.Date.Format(models.DateLayout)
		if _, ok := slates[key]; !ok {
			order = append(order, key)
		}
		slates[key] = append(slates[key], m)
		for _, o := range []*TeamOdds{home, away} {
			if o != nil {
				odds[key] = append(odds[key], *o)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	written := 0
	for _, key := range order {
		date := slates[key][0].Date
		if err := s.WriteSchedule(ctx, date, slates[key]); err != nil {
			return written, fmt.Errorf("failed to write schedule for %s: %w", key, err)
		}
		for _, o := range odds[key] {
			if err := s.WriteOdds(ctx, date, o); err != nil {
				return written, fmt.Errorf("failed to write odds for %s on %s: %w", o.Team, key, err)
			}
		}
		written += len(slates[key])
	}
	return written, nil
}

func encodeOdds(o TeamOdds) map[string]interface{} {
	fields := map[string]interface{}{}
	if o.American != nil {
		fields[fieldAmerican] = strconv.Itoa(*o.American)
	}
	if o.Decimal != nil {
		fields[fieldDecimal] = o.Decimal.String()
	}
	if o.Probability != nil {
		fields[fieldProbability] = strconv.FormatFloat(*o.Probability, 'f', -1, 64)
	}
	if o.SpreadLine != nil {
		fields[fieldSpread] = strconv.FormatFloat(*o.SpreadLine, 'f', -1, 64)
	}
	if !o.ObservedAt.IsZero() {
		fields[fieldObservedAt] = o.ObservedAt.UTC().Format(time.RFC3339)
	}
	if o.Source != "" {
		fields[fieldSource] = o.Source
	}
	return fields
}

// parseOdds decodes an odds hash. An empty hash yields nil.
func parseOdds(team string, fields map[string]string) (*TeamOdds, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	o := &TeamOdds{Team: team, Source: fields[fieldSource]}
	if v, ok := fields[fieldAmerican]; ok {
		a, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s american %q", ErrInvalidOdds, team, v)
		}
		o.American = &a
	}
	if v, ok := fields[fieldDecimal]; ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s decimal %q", ErrInvalidOdds, team, v)
		}
		o.Decimal = &d
	}
	if v, ok := fields[fieldProbability]; ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s probability %q", ErrInvalidOdds, team, v)
		}
		o.Probability = &p
	}
	if v, ok := fields[fieldSpread]; ok {
		sp, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s spread %q", ErrInvalidOdds, team, v)
		}
		o.SpreadLine = &sp
	}
	if v, ok := fields[fieldObservedAt]; ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s observed_at %q", ErrInvalidOdds, team, v)
		}
		o.ObservedAt = t
	}
	return o, nil
}
