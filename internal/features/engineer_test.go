package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/courtside/internal/history"
	"github.com/yourusername/courtside/internal/history/historytest"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/teams"
)

var day = historytest.Day

// seasonBuilder plays one game a day among LAL, BOS, MIA and DEN
func seasonBuilder() *historytest.Builder {
	b := &historytest.Builder{}
	pairs := [][2]string{{"LAL", "BOS"}, {"MIA", "DEN"}, {"BOS", "MIA"}, {"DEN", "LAL"}, {"LAL", "MIA"}, {"BOS", "DEN"}}
	start := day(2024, 10, 22)
	for i := 0; i < 24; i++ {
		p := pairs[i%len(pairs)]
		homePts := 100 + float64((i*7)%15)
		awayPts := 100 + float64((i*11)%13)
		if homePts == awayPts {
			homePts++
		}
		b.Game(start.AddDate(0, 0, i), p[0], p[1], homePts, awayPts)
	}
	return b
}

func newEngineer(t *testing.T, recs []models.PerformanceRecord) *Engineer {
	t.Helper()
	store, err := history.NewStore(recs, nil)
	require.NoError(t, err)
	e, err := NewEngineer(store, teams.NBA(), DefaultOptions())
	require.NoError(t, err)
	return e
}

func TestBuildIsLeakFree(t *testing.T) {
	recs := seasonBuilder().Records()
	target := Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 2), Home: true, Fixture: true}

	full := newEngineer(t, recs)
	want, err := full.Build(target)
	require.NoError(t, err)

	var before []models.PerformanceRecord
	for _, r := range recs {
		if r.GameDate.Before(target.Date) {
			before = append(before, r)
		}
	}
	require.Less(t, len(before), len(recs))

	truncated := newEngineer(t, before)
	got, err := truncated.Build(target)
	require.NoError(t, err)
	assert.Equal(t, want.Values(), got.Values())

	// reversing input order changes nothing either
	reversed := make([]models.PerformanceRecord, len(recs))
	for i, r := range recs {
		reversed[len(recs)-1-i] = r
	}
	again, err := newEngineer(t, reversed).Build(target)
	require.NoError(t, err)
	assert.Equal(t, want.Values(), again.Values())
}

func TestBuildIsIdempotent(t *testing.T) {
	e := newEngineer(t, seasonBuilder().Records())
	target := Target{Team: "MIA", Opponent: "DEN", Date: day(2024, 11, 10), Fixture: true}
	a, err := e.Build(target)
	require.NoError(t, err)
	b, err := e.Build(target)
	require.NoError(t, err)
	assert.Equal(t, a.Values(), b.Values())
	assert.Equal(t, len(Catalog()), a.Len())
	for _, v := range a.Values() {
		assert.False(t, math.IsNaN(v))
	}
}

func TestBuildUnknownTeam(t *testing.T) {
	e := newEngineer(t, seasonBuilder().Records())
	_, err := e.Build(Target{Team: "XYZ", Opponent: "BOS", Date: day(2024, 11, 2)})
	assert.ErrorIs(t, err, models.ErrData)
	_, err = e.Build(Target{Team: "LAL", Opponent: "QQQ", Date: day(2024, 11, 2)})
	assert.ErrorIs(t, err, models.ErrData)
}

func TestBuildDefaultsWithoutHistory(t *testing.T) {
	e := newEngineer(t, seasonBuilder().Records())
	v, err := e.Build(Target{Team: "PHX", Opponent: "SAC", Date: day(2024, 11, 2), Home: true, Fixture: true})
	require.NoError(t, err)

	for _, name := range []string{RollingWinRate, OppRollingWinRate, H2HWinRate, FormL3, OppFormL5} {
		got, ok := v.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, 0.5, got, name)
	}
	got, _ := v.Get(DaysRest)
	assert.Equal(t, 2.0, got)
	got, _ = v.Get(RollingPts)
	assert.Equal(t, 110.0, got)
	got, _ = v.Get(WinStreak)
	assert.Zero(t, got)
}

func TestOpponentMirrorWithoutFixtureUsesNeutralDefaults(t *testing.T) {
	e := newEngineer(t, seasonBuilder().Records())
	base := Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 12), Home: true}

	v, err := e.Build(base)
	require.NoError(t, err)
	got, _ := v.Get(OppRollingWinRate)
	assert.Equal(t, 0.5, got)
	got, _ = v.Get(OppRollingPlusMinus)
	assert.Zero(t, got)

	base.Fixture = true
	joined, err := e.Build(base)
	require.NoError(t, err)
	oppRate, _ := joined.Get(OppRollingWinRate)
	teamRate, _ := joined.Get(RollingWinRate)
	diff, _ := joined.Get(WinRateDiff)
	assert.InDelta(t, teamRate-oppRate, diff, 1e-12)
}

func TestStreakEnteringGame(t *testing.T) {
	b := &historytest.Builder{}
	b.Single(day(2024, 11, 1), "LAL", "BOS", true, false, 100, -5).
		Single(day(2024, 11, 3), "LAL", "BOS", true, true, 110, 5).
		Single(day(2024, 11, 5), "LAL", "MIA", false, true, 110, 5).
		Single(day(2024, 11, 7), "LAL", "DEN", false, true, 110, 5)
	e := newEngineer(t, b.Records())

	v, err := e.Build(Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 7), Home: false})
	require.NoError(t, err)
	got, _ := v.Get(WinStreak)
	assert.Equal(t, 2.0, got, "game on target date must not count")

	got, _ = v.Get(RoadGameStreak)
	assert.Equal(t, 2.0, got)

	v, err = e.Build(Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 3), Home: true})
	require.NoError(t, err)
	got, _ = v.Get(WinStreak)
	assert.Equal(t, -1.0, got)
	got, _ = v.Get(RoadGameStreak)
	assert.Zero(t, got)
}

func TestScheduleAndTravel(t *testing.T) {
	b := &historytest.Builder{}
	b.Single(day(2024, 11, 1), "BOS", "NYK", true, true, 100, 5)
	e := newEngineer(t, b.Records())

	v, err := e.Build(Target{Team: "BOS", Opponent: "LAL", Date: day(2024, 11, 2), Home: false})
	require.NoError(t, err)
	vals := v.Map()
	assert.Equal(t, 1.0, vals[DaysRest])
	assert.Equal(t, 1.0, vals[IsB2B])
	assert.Greater(t, vals[TravelDistance], 2500.0)
	assert.Equal(t, 1.0, vals[LongRoadTrip])
	assert.Zero(t, vals[SameConference])
	assert.InDelta(t, vals[TravelDistance]/1000, vals[TravelXB2B], 1e-9)
	assert.Equal(t, 0.0, vals[SeasonPhase])

	v, err = e.Build(Target{Team: "BOS", Opponent: "NYK", Date: day(2025, 2, 20), Home: true})
	require.NoError(t, err)
	vals = v.Map()
	assert.Equal(t, 7.0, vals[DaysRest])
	assert.Zero(t, vals[TravelDistance])
	assert.Equal(t, 1.0, vals[SameConference])
	assert.Equal(t, 1.0, vals[SeasonPhase])
}

func TestHeadToHeadAndForm(t *testing.T) {
	b := &historytest.Builder{}
	b.Game(day(2024, 11, 1), "LAL", "BOS", 110, 100).
		Game(day(2024, 11, 4), "BOS", "LAL", 110, 100).
		Game(day(2024, 11, 8), "LAL", "BOS", 110, 100).
		Game(day(2024, 11, 12), "BOS", "LAL", 99, 120)
	e := newEngineer(t, b.Records())

	v, err := e.Build(Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 15), Home: true, Fixture: true})
	require.NoError(t, err)
	vals := v.Map()
	// last three meetings: L, W, W
	assert.InDelta(t, 2.0/3.0, vals[H2HWinRate], 1e-12)
	assert.InDelta(t, 2.0/3.0, vals[FormL3], 1e-12)
	assert.InDelta(t, 0.75, vals[FormL5], 1e-12)
	assert.InDelta(t, 2.0/3.0-0.75, vals[Momentum], 1e-12)
	assert.InDelta(t, 1.0/3.0, vals[OppFormL3], 1e-12)
	assert.InDelta(t, 1.0/3.0, vals[FormDiff], 1e-12)
	// four games meet the minimum of three
	assert.InDelta(t, 0.75, vals[RollingWinRate], 1e-12)
	assert.InDelta(t, 0.25, vals[OppRollingWinRate], 1e-12)
}

func TestNetRatingSources(t *testing.T) {
	b := &historytest.Builder{}
	b.Game(day(2024, 11, 1), "LAL", "BOS", 110, 100).
		Game(day(2024, 11, 3), "LAL", "BOS", 100, 104)
	store, err := history.NewStore(b.Records(), []models.RatingSnapshot{{Team: "BOS", NetRating: 6.5, AsOf: day(2024, 11, 2)}})
	require.NoError(t, err)
	e, err := NewEngineer(store, teams.NBA(), DefaultOptions())
	require.NoError(t, err)

	v, err := e.Build(Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 5), Home: true, Fixture: true})
	require.NoError(t, err)
	vals := v.Map()
	assert.InDelta(t, 3.0, vals[TeamNetRating], 1e-12)
	assert.InDelta(t, 6.5, vals[OppNetRating], 1e-12)
	assert.InDelta(t, -3.5, vals[NetRatingDiff], 1e-12)

	// a rating observed on the game date is not visible
	v, err = e.Build(Target{Team: "BOS", Opponent: "LAL", Date: day(2024, 11, 2), Fixture: true})
	require.NoError(t, err)
	got, _ := v.Get(TeamNetRating)
	assert.InDelta(t, -10.0, got, 1e-12)
}

func TestFamilyToggles(t *testing.T) {
	store, err := history.NewStore(seasonBuilder().Records(), nil)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Families = []Family{FamilySchedule, FamilyRolling}
	e, err := NewEngineer(store, teams.NBA(), opts)
	require.NoError(t, err)

	v, err := e.Build(Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 2), Home: true})
	require.NoError(t, err)
	assert.Equal(t, 14, v.Len())
	_, ok := v.Get(H2HWinRate)
	assert.False(t, ok)

	opts.Families = []Family{"weather"}
	_, err = NewEngineer(store, teams.NBA(), opts)
	assert.Error(t, err)
}

func TestBuildDatasetReportsDrops(t *testing.T) {
	b := seasonBuilder()
	b.Single(day(2024, 11, 20), "LAL", "SEA", true, true, 100, 3)
	e := newEngineer(t, b.Records())

	ds, err := e.BuildDataset(DatasetOptions{MinHistory: 1})
	require.NoError(t, err)
	total := len(b.Records())
	assert.Equal(t, total, len(ds.Rows)+ds.DroppedTotal())
	assert.Equal(t, 1, ds.Dropped["unknown team"])
	assert.Equal(t, 4, ds.Dropped["insufficient history"])
	assert.Len(t, ds.X(), len(ds.Rows))
	assert.Len(t, ds.WinLabels(), len(ds.Rows))
	assert.Equal(t, ds.Names, e.Names())
	for _, r := range ds.Rows {
		assert.True(t, r.Target.Fixture)
	}
}

func TestBuildDatasetEmpty(t *testing.T) {
	b := &historytest.Builder{}
	b.Game(day(2024, 11, 1), "LAL", "BOS", 110, 100)
	e := newEngineer(t, b.Records())
	_, err := e.BuildDataset(DatasetOptions{MinHistory: 1})
	assert.ErrorIs(t, err, models.ErrData)
}

func TestCachedEngineer(t *testing.T) {
	e := newEngineer(t, seasonBuilder().Records())
	c := NewCachedEngineer(e, time.Minute)
	target := Target{Team: "LAL", Opponent: "BOS", Date: day(2024, 11, 2), Home: true, Fixture: true}

	first, err := c.Build(target)
	require.NoError(t, err)
	second, err := c.Build(target)
	require.NoError(t, err)
	assert.Equal(t, first.Values(), second.Values())

	hits, misses, ratio := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-12)
	assert.Equal(t, 1, c.ItemCount())

	c.Clear()
	assert.Zero(t, c.ItemCount())
}
