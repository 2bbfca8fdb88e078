package decision

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/history"
	"github.com/yourusername/courtside/internal/history/historytest"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/teams"
)

var (
	gameDay = historytest.Day(2025, 1, 15)
	clock   = time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)
	names   = features.Names(features.DefaultOptions().Families)
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// stubBuilder serves fixed per-team values and can fail for a team on either side or panic
type stubBuilder struct {
	values  map[string]map[string]float64
	failFor string
	panicOn string
}

func (b stubBuilder) Build(t features.Target) (features.Vector, error) {
	if t.Team == b.panicOn {
		panic("boom")
	}
	for _, team := range []string{t.Team, t.Opponent} {
		if team == b.failFor {
			return features.Vector{}, models.NewDataError(team, "unknown team")
		}
	}
	vals := map[string]float64{features.IsHome: 0}
	if t.Home {
		vals[features.IsHome] = 1
	}
	for k, v := range b.values[t.Team] {
		vals[k] = v
	}
	return features.NewVector(names, vals), nil
}

// fixedModel always predicts the same value
type fixedModel struct {
	value float64
	err   error
}

func (m fixedModel) Predict(features.Vector) (float64, error) { return m.value, m.err }

// strengthModel is monotonic in the team's rolling win rate
type strengthModel struct{}

func (strengthModel) Predict(vec features.Vector) (float64, error) {
	wr, _ := vec.Get(features.RollingWinRate)
	opp, _ := vec.Get(features.OppRollingWinRate)
	return 0.5 + (wr - opp), nil
}

// namedBuilder also reports the features it produces
type namedBuilder struct {
	stubBuilder
	served []string
}

func (b namedBuilder) Names() []string { return b.served }

// schemaModel carries a training feature list
type schemaModel struct {
	fixedModel
	trained []string
}

func (m schemaModel) Features() []string { return m.trained }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Clock = func() time.Time { return clock }
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, outcome WinProbabilityModel, margin MarginPredictor) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, stubBuilder{}, outcome, margin, quietLogger())
	require.NoError(t, err)
	return e
}

func matchup() models.Matchup {
	return models.Matchup{Home: "LAL", Away: "BOS", Date: gameDay}
}

func quote(team string, p float64) *models.MarketQuote {
	return &models.MarketQuote{Team: team, ImpliedProbability: p, ObservedAt: clock.Add(-time.Hour)}
}

func line(v float64) *float64 { return &v }

func TestMoneylinePick(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.60}, nil)

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{Home: quote("LAL", 0.50), Away: quote("BOS", 0.50)},
	})

	require.Equal(t, StatusSignal, out.Status)
	rec := out.Recommendation
	assert.Equal(t, models.SideHomeMoneyline, rec.Side)
	assert.InDelta(t, 0.10, rec.Edge, 1e-9)
	assert.Contains(t, []models.Confidence{models.ConfidenceMedium, models.ConfidenceHigh}, rec.Confidence)
	assert.Nil(t, rec.PredictedMargin)
	assert.Contains(t, rec.Rationale, "pick HOME_ML")
	assert.Equal(t, clock, rec.CreatedAt)
}

func TestMoneylineAwayPick(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.30}, nil)

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{Home: quote("LAL", 0.58), Away: quote("BOS", 0.42)},
	})

	assert.Equal(t, models.SideAwayMoneyline, out.Recommendation.Side)
	assert.InDelta(t, 0.28, out.Recommendation.Edge, 1e-9)
	assert.Equal(t, models.ConfidenceHigh, out.Recommendation.Confidence)
}

func TestMoneylineEdgeBoundaryIsInclusive(t *testing.T) {
	tests := []struct {
		name   string
		model  float64
		market float64
		want   models.BetSide
	}{
		{"exactly five points", 0.60, 0.55, models.SideHomeMoneyline},
		{"just over", 0.551, 0.50, models.SideHomeMoneyline},
		{"just under", 0.549, 0.50, models.SidePass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, testConfig(), fixedModel{value: tt.model}, nil)
			out := e.Analyze(context.Background(), Request{
				Matchup: matchup(),
				Quotes:  models.MatchupQuotes{Home: quote("LAL", tt.market)},
			})
			assert.Equal(t, tt.want, out.Recommendation.Side)
			if tt.want != models.SidePass {
				assert.Equal(t, models.ConfidenceMedium, out.Recommendation.Confidence)
			} else {
				assert.Equal(t, StatusNoSignal, out.Status)
				assert.Zero(t, out.Recommendation.Edge)
			}
		})
	}
}

func TestSpreadCoverageBoundary(t *testing.T) {
	tests := []struct {
		name     string
		margin   float64
		line     float64
		want     models.BetSide
		coverage float64
	}{
		{"exactly threshold", 8, -5.5, models.SidePass, 2.5},
		{"home covers", 8.1, -5.5, models.SideHomeSpread, 2.6},
		{"away covers", -9, 5.5, models.SideAwaySpread, -3.5},
		{"away at threshold", -8, 5.5, models.SidePass, -2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, testConfig(), fixedModel{value: 0.5}, fixedModel{value: tt.margin})
			out := e.Analyze(context.Background(), Request{
				Matchup: matchup(),
				Quotes:  models.MatchupQuotes{SpreadLine: line(tt.line)},
			})
			rec := out.Recommendation
			assert.Equal(t, tt.want, rec.Side)
			require.NotNil(t, rec.Coverage)
			assert.InDelta(t, tt.coverage, *rec.Coverage, 1e-9)
			if tt.want != models.SidePass {
				assert.InDelta(t, abs(tt.coverage)/20, rec.Edge, 1e-9)
				assert.Equal(t, StatusSignal, out.Status)
			}
		})
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestMoneylineTakesPriorityOverSpread(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.62}, fixedModel{value: 12})

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes: models.MatchupQuotes{
			Home:       quote("LAL", 0.55),
			Away:       quote("BOS", 0.45),
			SpreadLine: line(-3),
		},
	})

	assert.Equal(t, models.SideHomeMoneyline, out.Recommendation.Side)
	assert.InDelta(t, 0.07, out.Recommendation.Edge, 1e-9)
	require.NotNil(t, out.Recommendation.Coverage)
	assert.InDelta(t, 9, *out.Recommendation.Coverage, 1e-9)
}

func TestStaleQuoteSkipsOnlyItsSide(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.60}, fixedModel{value: 6})

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes: models.MatchupQuotes{
			Home:       quote("LAL", 0.97),
			Away:       quote("BOS", 0.45),
			SpreadLine: line(-3),
		},
	})

	rec := out.Recommendation
	assert.Equal(t, models.SideHomeSpread, rec.Side)
	assert.InDelta(t, 0.15, rec.Edge, 1e-9)
	assert.Contains(t, rec.Rationale, "stale quote skipped for LAL")
	assert.Contains(t, rec.Rationale, "away ML edge")
	assert.NotContains(t, rec.Rationale, "home ML edge")
}

func TestDeviggedStaleQuoteIsRejected(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.99}, nil)

	home := quote("LAL", 0.94)
	home.RawProbability = 0.97
	away := quote("BOS", 0.06)

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{Home: home, Away: away},
	})

	assert.NotEqual(t, models.SideHomeMoneyline, out.Recommendation.Side)
	assert.Contains(t, out.Recommendation.Rationale, "stale quote skipped for LAL")
}

func TestStaleQuoteWithoutSpreadIsNoBet(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.60}, nil)

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{Home: quote("LAL", 0.97)},
	})

	assert.Equal(t, StatusNoSignal, out.Status)
	assert.Equal(t, models.SidePass, out.Recommendation.Side)
	assert.NoError(t, out.Err)
}

func TestOldQuoteIsRejected(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.70}, nil)
	old := quote("LAL", 0.50)
	old.ObservedAt = clock.Add(-7 * time.Hour)

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{Home: old},
	})

	assert.Equal(t, models.SidePass, out.Recommendation.Side)
	assert.Contains(t, out.Recommendation.Rationale, "stale quote skipped for LAL")
}

func TestOverridesPenalizeTeam(t *testing.T) {
	cfg := testConfig()
	cfg.Overrides = Overrides{"LAL": {Player: "Star Guard", Penalty: 0.15}}
	e := newTestEngine(t, cfg, fixedModel{value: 0.60}, nil)

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{Home: quote("LAL", 0.50), Away: quote("BOS", 0.50)},
	})

	rec := out.Recommendation
	assert.InDelta(t, 0.45, rec.HomeWinProb, 1e-9)
	assert.InDelta(t, 0.55, rec.AwayWinProb, 1e-9)
	assert.Equal(t, models.SideAwayMoneyline, rec.Side)
	require.Len(t, rec.Overrides, 1)
	assert.Contains(t, rec.Overrides[0], "Star Guard")
}

func TestProbabilityInvariants(t *testing.T) {
	cfg := testConfig()
	cfg.Overrides = Overrides{"BOS": {Player: "Big Man", Penalty: 0.2}}
	for _, raw := range []float64{-0.3, 0, 0.004, 0.35, 0.5, 0.81, 0.995, 1, 1.4} {
		e := newTestEngine(t, cfg, fixedModel{value: raw}, nil)
		out := e.Analyze(context.Background(), Request{Matchup: matchup()})
		require.Equal(t, StatusNoSignal, out.Status, "raw %v", raw)
		rec := out.Recommendation
		assert.InDelta(t, 1.0, rec.HomeWinProb+rec.AwayWinProb, 1e-12, "raw %v", raw)
		assert.GreaterOrEqual(t, rec.HomeWinProb, 0.01)
		assert.LessOrEqual(t, rec.HomeWinProb, 0.99)
		assert.GreaterOrEqual(t, rec.AwayWinProb, 0.01-1e-12)
		assert.LessOrEqual(t, rec.AwayWinProb, 0.99+1e-12)
	}
}

func TestMonotonicInRollingWinRate(t *testing.T) {
	prev := -1.0
	for _, wr := range []float64{0.2, 0.35, 0.5, 0.65, 0.8} {
		builder := stubBuilder{values: map[string]map[string]float64{
			"LAL": {features.RollingWinRate: wr, features.OppRollingWinRate: 0.5},
		}}
		e, err := NewEngine(testConfig(), builder, strengthModel{}, nil, quietLogger())
		require.NoError(t, err)
		out := e.Analyze(context.Background(), Request{Matchup: matchup()})
		require.False(t, out.Failed())
		assert.GreaterOrEqual(t, out.Recommendation.HomeWinProb, prev, "win rate %v", wr)
		prev = out.Recommendation.HomeWinProb
	}
}

func TestFailuresBecomeNoBet(t *testing.T) {
	tests := []struct {
		name    string
		builder stubBuilder
		outcome WinProbabilityModel
		margin  MarginPredictor
		m       models.Matchup
		is      error
		msg     string
	}{
		{
			name:    "feature build error",
			builder: stubBuilder{failFor: "BOS"},
			outcome: fixedModel{value: 0.6},
			m:       matchup(),
			is:      models.ErrData,
		},
		{
			name:    "outcome not ready",
			outcome: fixedModel{err: &models.ModelNotReadyError{Model: "outcome"}},
			m:       matchup(),
			is:      models.ErrModelNotReady,
		},
		{
			name:    "feature mismatch",
			outcome: fixedModel{err: &models.FeatureMismatchError{Missing: []string{"x"}}},
			m:       matchup(),
			is:      models.ErrFeatureMismatch,
		},
		{
			name:    "panic",
			builder: stubBuilder{panicOn: "LAL"},
			outcome: fixedModel{value: 0.6},
			m:       matchup(),
			msg:     "panic",
		},
		{
			name:    "same team",
			outcome: fixedModel{value: 0.6},
			m:       models.Matchup{Home: "LAL", Away: "LAL", Date: gameDay},
			is:      models.ErrData,
		},
		{
			name:    "margin failure",
			outcome: fixedModel{value: 0.6},
			margin:  fixedModel{err: errors.New("corrupt ensemble")},
			m:       matchup(),
			msg:     "corrupt ensemble",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(testConfig(), tt.builder, tt.outcome, tt.margin, quietLogger())
			require.NoError(t, err)

			var out Outcome
			require.NotPanics(t, func() {
				out = e.Analyze(context.Background(), Request{Matchup: tt.m})
			})
			assert.Equal(t, StatusFailed, out.Status)
			assert.Equal(t, models.SidePass, out.Recommendation.Side)
			assert.Zero(t, out.Recommendation.Edge)
			assert.Equal(t, models.ConfidenceLow, out.Recommendation.Confidence)
			assert.Contains(t, out.Recommendation.Rationale, "analysis failed")
			require.Error(t, out.Err)
			if tt.is != nil {
				assert.ErrorIs(t, out.Err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, out.ErrorMessage(), tt.msg)
			}
		})
	}
}

// recordingBuilder keeps every target it was asked to build
type recordingBuilder struct {
	stubBuilder
	targets *[]features.Target
}

func (b recordingBuilder) Build(t features.Target) (features.Vector, error) {
	*b.targets = append(*b.targets, t)
	return b.stubBuilder.Build(t)
}

func TestAnalyzeBuildsOnlyTheHomeVector(t *testing.T) {
	var targets []features.Target
	e, err := NewEngine(testConfig(), recordingBuilder{targets: &targets}, fixedModel{value: 0.6}, fixedModel{value: 3}, quietLogger())
	require.NoError(t, err)

	out := e.Analyze(context.Background(), Request{Matchup: matchup(), Quotes: models.MatchupQuotes{SpreadLine: line(-1.5)}})
	require.False(t, out.Failed())

	require.Len(t, targets, 1)
	assert.Equal(t, "LAL", targets[0].Team)
	assert.Equal(t, "BOS", targets[0].Opponent)
	assert.True(t, targets[0].Home)
	assert.True(t, targets[0].Fixture)
}

func TestUnknownAwayTeamFailsTheHomeBuild(t *testing.T) {
	e, err := NewEngine(testConfig(), stubBuilder{failFor: "BOS"}, fixedModel{value: 0.6}, nil, quietLogger())
	require.NoError(t, err)

	out := e.Analyze(context.Background(), Request{Matchup: matchup()})
	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, models.ErrData)
	assert.Contains(t, out.Err.Error(), "LAL vs BOS")
}

func TestMarginNotReadySkipsSpread(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.5}, fixedModel{err: &models.ModelNotReadyError{Model: "margin"}})

	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{SpreadLine: line(-20)},
	})

	assert.Equal(t, StatusNoSignal, out.Status)
	assert.Nil(t, out.Recommendation.PredictedMargin)
	assert.Nil(t, out.Recommendation.Coverage)
	assert.Contains(t, out.Recommendation.Rationale, "margin n/a")
}

func TestAnalyzeBatchIsOneToOne(t *testing.T) {
	builder := stubBuilder{failFor: "MIA", panicOn: "DEN"}
	e, err := NewEngine(testConfig(), builder, fixedModel{value: 0.65}, nil, quietLogger())
	require.NoError(t, err)

	reqs := []Request{
		{Matchup: matchup(), Quotes: models.MatchupQuotes{Home: quote("LAL", 0.5)}},
		{Matchup: models.Matchup{Home: "MIA", Away: "NYK", Date: gameDay}},
		{Matchup: models.Matchup{Home: "DEN", Away: "PHX", Date: gameDay}},
		{Matchup: models.Matchup{Home: "GSW", Away: "SAC", Date: gameDay}},
	}
	outs := e.AnalyzeBatch(context.Background(), reqs)

	require.Len(t, outs, len(reqs))
	for i, out := range outs {
		assert.Equal(t, reqs[i].Matchup.Home, out.Recommendation.Matchup.Home)
	}
	assert.Equal(t, StatusSignal, outs[0].Status)
	assert.Equal(t, StatusFailed, outs[1].Status)
	assert.Equal(t, StatusFailed, outs[2].Status)
	assert.Equal(t, StatusNoSignal, outs[3].Status)
}

func TestAnalyzeBatchCanceled(t *testing.T) {
	e := newTestEngine(t, testConfig(), fixedModel{value: 0.6}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outs := e.AnalyzeBatch(ctx, []Request{{Matchup: matchup()}, {Matchup: matchup()}})

	require.Len(t, outs, 2)
	for _, out := range outs {
		assert.Equal(t, StatusFailed, out.Status)
		assert.ErrorIs(t, out.Err, context.Canceled)
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Policy.HighConfidenceEdge = 0.01
	_, err := NewEngine(cfg, stubBuilder{}, fixedModel{}, nil, quietLogger())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Overrides = Overrides{"lakers": {Player: "x", Penalty: 0.1}}
	_, err = NewEngine(cfg, stubBuilder{}, fixedModel{}, nil, quietLogger())
	assert.Error(t, err)

	_, err = NewEngine(testConfig(), nil, fixedModel{}, nil, quietLogger())
	assert.Error(t, err)
}

// End to end over a real history: home rolling win rate 0.70, away 0.40,
// market 55/45, no spread.
func TestEndToEndHomeMoneyline(t *testing.T) {
	b := &historytest.Builder{}
	start := historytest.Day(2025, 1, 1)
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		if i < 7 {
			b.Game(d, "LAL", "MIA", 110, 100)
		} else {
			b.Game(d, "LAL", "MIA", 100, 110)
		}
		if i < 4 {
			b.Game(d, "BOS", "DEN", 110, 100)
		} else {
			b.Game(d, "BOS", "DEN", 100, 110)
		}
	}
	store, err := history.NewStore(b.Records(), nil)
	require.NoError(t, err)
	eng, err := features.NewEngineer(store, teams.NBA(), features.DefaultOptions())
	require.NoError(t, err)

	home, err := eng.Build(features.Target{Team: "LAL", Opponent: "BOS", Date: gameDay, Home: true, Fixture: true})
	require.NoError(t, err)
	wr, _ := home.Get(features.RollingWinRate)
	opp, _ := home.Get(features.OppRollingWinRate)
	require.InDelta(t, 0.70, wr, 1e-9)
	require.InDelta(t, 0.40, opp, 1e-9)

	e, err := NewEngine(testConfig(), eng, strengthModel{}, nil, quietLogger())
	require.NoError(t, err)
	out := e.Analyze(context.Background(), Request{
		Matchup: matchup(),
		Quotes:  models.MatchupQuotes{Home: quote("LAL", 0.55), Away: quote("BOS", 0.45)},
	})

	require.Equal(t, StatusSignal, out.Status, out.Recommendation.Rationale)
	rec := out.Recommendation
	assert.Greater(t, rec.HomeWinProb, 0.60)
	assert.Equal(t, models.SideHomeMoneyline, rec.Side)
	assert.GreaterOrEqual(t, rec.Edge, 0.05)
	assert.Equal(t, models.ConfidenceHigh, rec.Confidence)
}

func TestNewEngineChecksModelFeaturesAgainstBuilder(t *testing.T) {
	narrow := features.Names([]features.Family{features.FamilySchedule, features.FamilyRolling})
	builder := namedBuilder{served: narrow}

	tests := []struct {
		name    string
		outcome WinProbabilityModel
		margin  MarginPredictor
		wantErr string
	}{
		{"matching outcome", schemaModel{trained: narrow}, nil, ""},
		{"outcome subset", schemaModel{trained: narrow[:3]}, nil, ""},
		{"outcome needs more", schemaModel{trained: names}, nil, "outcome model"},
		{"margin needs more", schemaModel{trained: narrow}, schemaModel{trained: names}, "margin model"},
		{"unloaded margin", schemaModel{trained: narrow}, schemaModel{}, ""},
		{"model without schema", fixedModel{value: 0.5}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(testConfig(), builder, tt.outcome, tt.margin, quietLogger())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrFeatureMismatch)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), features.OppRollingWinRate)
		})
	}
}
