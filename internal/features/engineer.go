package features

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yourusername/courtside/internal/history"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/teams"
)

// Target is the team about to play on Date. The opponent's rolling and form values
// are joined only when Fixture is set, meaning the opponent is known to play this
// team on Date; otherwise they take neutral defaults.
type Target struct {
	Team     string
	Opponent string
	Date     time.Time
	Home     bool
	Fixture  bool
}

// Engineer computes feature vectors from a history snapshot. Every statistic for a
// target on date D is derived from records dated strictly before D.
type Engineer struct {
	store   *history.Store
	catalog *teams.Catalog
	opts    Options
	names   []string
}

// NewEngineer creates an engineer over a frozen store
func NewEngineer(store *history.Store, catalog *teams.Catalog, opts Options) (*Engineer, error) {
	if store == nil || catalog == nil {
		return nil, fmt.Errorf("feature engineer requires a history store and team catalog")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature options: %w", err)
	}
	return &Engineer{
		store:   store,
		catalog: catalog,
		opts:    opts,
		names:   Names(opts.Families),
	}, nil
}

// Names returns the ordered feature names this engineer emits
func (e *Engineer) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Store returns the snapshot the engineer reads
func (e *Engineer) Store() *history.Store { return e.store }

// Build computes the vector for t
func (e *Engineer) Build(t Target) (Vector, error) {
	team := strings.ToUpper(t.Team)
	opp := strings.ToUpper(t.Opponent)
	if !e.catalog.Known(team) {
		return Vector{}, models.NewDataError(team, "unknown team")
	}
	if !e.catalog.Known(opp) {
		return Vector{}, models.NewDataError(opp, "unknown opponent")
	}
	if team == opp {
		return Vector{}, models.NewDataError(team, "team cannot play itself")
	}
	date := models.NormalizeDate(t.Date)

	vals := Defaults()
	past := e.store.RecordsFor(team, date)

	e.schedule(vals, past, date, t.Home)
	e.rolling(vals, "", team, past, date)
	if t.Fixture {
		oppPast := e.store.RecordsFor(opp, date)
		e.rolling(vals, "opp_", opp, oppPast, date)
		e.form(vals, "opp_", oppPast)
	}
	vals[WinRateDiff] = vals[RollingWinRate] - vals[OppRollingWinRate]
	vals[NetRatingDiff] = vals[TeamNetRating] - vals[OppNetRating]

	vals[WinStreak] = streak(past)
	e.travel(vals, team, opp, past, t.Home)
	vals[SeasonPhase] = seasonPhase(date)
	e.headToHead(vals, team, opp, date)
	e.form(vals, "", past)
	vals[FormDiff] = vals[FormL3] - vals[OppFormL3]
	e.scoring(vals, past)
	interactions(vals)

	return NewVector(e.names, vals), nil
}

func (e *Engineer) schedule(vals map[string]float64, past []models.PerformanceRecord, date time.Time, home bool) {
	vals[IsHome] = boolFloat(home)
	rest := e.opts.DaysRestDefault
	if n := len(past); n > 0 {
		rest = math.Floor(date.Sub(past[n-1].GameDate).Hours() / 24)
	}
	vals[DaysRest] = math.Min(rest, e.opts.DaysRestCap)
	vals[IsB2B] = boolFloat(vals[DaysRest] == 1)
}

// rolling fills the rolling family for prefix "" or the opponent mirror for "opp_"
func (e *Engineer) rolling(vals map[string]float64, prefix, team string, past []models.PerformanceRecord, date time.Time) {
	window := tail(past, e.opts.RollingWindow)
	if len(window) >= e.opts.RollingMinPeriods {
		vals[prefix+RollingWinRate] = mean(window, func(r models.PerformanceRecord) float64 { return r.WinFlag() })
		vals[prefix+RollingPlusMinus] = mean(window, func(r models.PerformanceRecord) float64 { return r.PlusMinus })
		if prefix == "" {
			vals[RollingPts] = mean(window, func(r models.PerformanceRecord) float64 { return r.Points })
			vals[RollingAst] = mean(window, func(r models.PerformanceRecord) float64 { return r.Assists })
			vals[RollingReb] = mean(window, func(r models.PerformanceRecord) float64 { return r.Rebounds })
			vals[RollingStl] = mean(window, func(r models.PerformanceRecord) float64 { return r.Steals })
			vals[RollingBlk] = mean(window, func(r models.PerformanceRecord) float64 { return r.Blocks })
			vals[RollingTov] = mean(window, func(r models.PerformanceRecord) float64 { return r.Turnovers })
			vals[RollingFGPct] = mean(window, func(r models.PerformanceRecord) float64 { return r.FGPct })
			vals[RollingFG3Pct] = mean(window, func(r models.PerformanceRecord) float64 { return r.FG3Pct })
		}
	}

	key := TeamNetRating
	if prefix != "" {
		key = OppNetRating
	}
	vals[key] = e.netRating(team, date)
}

// netRating prefers the latest external rating observed before date, then the
// season-to-date mean margin, then zero
func (e *Engineer) netRating(team string, date time.Time) float64 {
	if r, ok := e.store.RatingBefore(team, date); ok {
		return r.NetRating
	}
	season := e.store.SeasonRecords(team, date)
	if len(season) == 0 {
		return 0
	}
	return mean(season, func(r models.PerformanceRecord) float64 { return r.PlusMinus })
}

func (e *Engineer) travel(vals map[string]float64, team, opp string, past []models.PerformanceRecord, home bool) {
	vals[SameConference] = boolFloat(e.catalog.SameConference(team, opp))
	if home {
		vals[TravelDistance] = 0
		vals[LongRoadTrip] = 0
		vals[RoadGameStreak] = 0
		return
	}
	dist := e.catalog.DistanceMiles(team, opp)
	vals[TravelDistance] = dist
	vals[LongRoadTrip] = boolFloat(dist > e.opts.LongRoadTripMiles)

	streak := 1.0
	for i := len(past) - 1; i >= 0 && !past[i].IsHome; i-- {
		streak++
	}
	vals[RoadGameStreak] = streak
}

func (e *Engineer) headToHead(vals map[string]float64, team, opp string, date time.Time) {
	meetings := e.store.HeadToHead(team, opp, date, e.opts.H2HWindow)
	if len(meetings) == 0 {
		return
	}
	vals[H2HWinRate] = mean(meetings, func(r models.PerformanceRecord) float64 { return r.WinFlag() })
}

func (e *Engineer) form(vals map[string]float64, prefix string, past []models.PerformanceRecord) {
	if len(past) == 0 {
		return
	}
	win := func(r models.PerformanceRecord) float64 { return r.WinFlag() }
	short := mean(tail(past, e.opts.FormShort), win)
	long := mean(tail(past, e.opts.FormLong), win)
	vals[prefix+FormL3] = short
	vals[prefix+FormL5] = long
	if prefix == "" {
		vals[Momentum] = short - long
	}
}

func (e *Engineer) scoring(vals map[string]float64, past []models.PerformanceRecord) {
	if len(past) == 0 {
		return
	}
	pts := func(r models.PerformanceRecord) float64 { return r.Points }
	short := mean(tail(past, e.opts.FormShort), pts)
	long := mean(tail(past, e.opts.FormLong), pts)
	vals[RollingPtsL5] = long
	vals[ScoringTrend] = short - long
}

func interactions(vals map[string]float64) {
	vals[HomeXStrength] = vals[IsHome] * vals[WinRateDiff]
	vals[B2BXForm] = vals[IsB2B] * vals[RollingWinRate]
	vals[TravelXB2B] = vals[TravelDistance] / 1000 * vals[IsB2B]
	vals[StrengthProduct] = vals[WinRateDiff] * vals[NetRatingDiff]
	vals[FormXH2H] = vals[FormL3] * vals[H2HWinRate]
	vals[FormDiffXHome] = vals[FormDiff] * vals[IsHome]
	vals[StreakXForm] = vals[WinStreak] * vals[FormL3]
	vals[ScoringXHome] = vals[ScoringTrend] * vals[IsHome]
}

// streak is the signed run of wins (positive) or losses (negative) entering the next game
func streak(past []models.PerformanceRecord) float64 {
	n := len(past)
	if n == 0 {
		return 0
	}
	won := past[n-1].Won()
	count := 0.0
	for i := n - 1; i >= 0 && past[i].Won() == won; i-- {
		count++
	}
	if won {
		return count
	}
	return -count
}

// seasonPhase buckets months: Oct-Dec early, Jan-Mar mid, otherwise late
func seasonPhase(date time.Time) float64 {
	switch date.Month() {
	case time.October, time.November, time.December:
		return 0
	case time.January, time.February, time.March:
		return 1
	default:
		return 2
	}
}

func tail(recs []models.PerformanceRecord, n int) []models.PerformanceRecord {
	if len(recs) <= n {
		return recs
	}
	return recs[len(recs)-n:]
}

func mean(recs []models.PerformanceRecord, f func(models.PerformanceRecord) float64) float64 {
	if len(recs) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range recs {
		sum += f(r)
	}
	return sum / float64(len(recs))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
