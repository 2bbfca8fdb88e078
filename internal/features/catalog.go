// Package features turns a history snapshot into leak-free feature vectors.
package features

// Family groups features that are computed together and toggled together
type Family string

// Feature families in pipeline order
const (
	FamilySchedule     Family = "schedule"
	FamilyRolling      Family = "rolling"
	FamilyOpponent     Family = "opponent"
	FamilyStreak       Family = "streak"
	FamilyTravel       Family = "travel"
	FamilySeason       Family = "season"
	FamilyHeadToHead   Family = "h2h"
	FamilyForm         Family = "form"
	FamilyScoring      Family = "scoring"
	FamilyInteractions Family = "interactions"
)

// Families lists every family in pipeline order
var Families = []Family{
	FamilySchedule, FamilyRolling, FamilyOpponent, FamilyStreak, FamilyTravel,
	FamilySeason, FamilyHeadToHead, FamilyForm, FamilyScoring, FamilyInteractions,
}

// Feature names
const (
	IsHome   = "is_home"
	DaysRest = "days_rest"
	IsB2B    = "is_b2b"

	RollingWinRate   = "rolling_win_rate"
	RollingPts       = "rolling_pts"
	RollingAst       = "rolling_ast"
	RollingReb       = "rolling_reb"
	RollingStl       = "rolling_stl"
	RollingBlk       = "rolling_blk"
	RollingTov       = "rolling_tov"
	RollingFGPct     = "rolling_fg_pct"
	RollingFG3Pct    = "rolling_fg3_pct"
	RollingPlusMinus = "rolling_plus_minus"
	TeamNetRating    = "team_net_rating"

	OppRollingWinRate   = "opp_rolling_win_rate"
	OppRollingPlusMinus = "opp_rolling_plus_minus"
	OppNetRating        = "opp_net_rating"
	WinRateDiff         = "win_rate_diff"
	NetRatingDiff       = "net_rating_diff"

	WinStreak = "win_streak"

	SameConference = "same_conference"
	TravelDistance = "travel_distance"
	LongRoadTrip   = "long_road_trip"
	RoadGameStreak = "road_game_streak"

	SeasonPhase = "season_phase"

	H2HWinRate = "h2h_win_rate"

	FormL3    = "form_l3"
	FormL5    = "form_l5"
	Momentum  = "momentum"
	OppFormL3 = "opp_form_l3"
	OppFormL5 = "opp_form_l5"
	FormDiff  = "form_diff"

	RollingPtsL5 = "rolling_pts_l5"
	ScoringTrend = "scoring_trend"

	HomeXStrength   = "home_x_strength"
	B2BXForm        = "b2b_x_form"
	TravelXB2B      = "travel_x_b2b"
	StrengthProduct = "strength_product"
	FormXH2H        = "form_x_h2h"
	FormDiffXHome   = "form_diff_x_home"
	StreakXForm     = "streak_x_form"
	ScoringXHome    = "scoring_x_home"
)

// Definition describes one feature and the neutral value it takes when history is insufficient
type Definition struct {
	Name    string  `json:"name"`
	Family  Family  `json:"family"`
	Default float64 `json:"default"`
}

// catalog is the canonical ordered feature list shared by the engineer and both models.
// Derived features (differentials, momentum, interactions) are always computable from
// their operands, so their default only applies when the operands are themselves defaults.
var catalog = []Definition{
	{IsHome, FamilySchedule, 0},
	{DaysRest, FamilySchedule, 2},
	{IsB2B, FamilySchedule, 0},

	{RollingWinRate, FamilyRolling, 0.5},
	{RollingPts, FamilyRolling, 110},
	{RollingAst, FamilyRolling, 25},
	{RollingReb, FamilyRolling, 44},
	{RollingStl, FamilyRolling, 7.5},
	{RollingBlk, FamilyRolling, 5},
	{RollingTov, FamilyRolling, 14},
	{RollingFGPct, FamilyRolling, 0.47},
	{RollingFG3Pct, FamilyRolling, 0.36},
	{RollingPlusMinus, FamilyRolling, 0},
	{TeamNetRating, FamilyRolling, 0},

	{OppRollingWinRate, FamilyOpponent, 0.5},
	{OppRollingPlusMinus, FamilyOpponent, 0},
	{OppNetRating, FamilyOpponent, 0},
	{WinRateDiff, FamilyOpponent, 0},
	{NetRatingDiff, FamilyOpponent, 0},

	{WinStreak, FamilyStreak, 0},

	{SameConference, FamilyTravel, 0},
	{TravelDistance, FamilyTravel, 0},
	{LongRoadTrip, FamilyTravel, 0},
	{RoadGameStreak, FamilyTravel, 0},

	{SeasonPhase, FamilySeason, 0},

	{H2HWinRate, FamilyHeadToHead, 0.5},

	{FormL3, FamilyForm, 0.5},
	{FormL5, FamilyForm, 0.5},
	{Momentum, FamilyForm, 0},
	{OppFormL3, FamilyForm, 0.5},
	{OppFormL5, FamilyForm, 0.5},
	{FormDiff, FamilyForm, 0},

	{RollingPtsL5, FamilyScoring, 110},
	{ScoringTrend, FamilyScoring, 0},

	{HomeXStrength, FamilyInteractions, 0},
	{B2BXForm, FamilyInteractions, 0},
	{TravelXB2B, FamilyInteractions, 0},
	{StrengthProduct, FamilyInteractions, 0},
	{FormXH2H, FamilyInteractions, 0.25},
	{FormDiffXHome, FamilyInteractions, 0},
	{StreakXForm, FamilyInteractions, 0},
	{ScoringXHome, FamilyInteractions, 0},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, s := range catalog {
		idx[s.Name] = i
	}
	return idx
}()

// Catalog returns a copy of the full ordered feature catalog
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition of a feature name
func Lookup(name string) (Definition, bool) {
	i, ok := catalogIndex[name]
	if !ok {
		return Definition{}, false
	}
	return catalog[i], true
}

// Known reports whether name is in the catalog
func Known(name string) bool {
	_, ok := catalogIndex[name]
	return ok
}

// Unknown returns the names not present in the catalog, in input order
func Unknown(names []string) []string {
	var out []string
	for _, n := range names {
		if !Known(n) {
			out = append(out, n)
		}
	}
	return out
}

// Names returns catalog names belonging to the given families, in catalog order
func Names(families []Family) []string {
	enabled := make(map[Family]bool, len(families))
	for _, f := range families {
		enabled[f] = true
	}
	var out []string
	for _, s := range catalog {
		if enabled[s.Family] {
			out = append(out, s.Name)
		}
	}
	return out
}

// Defaults returns the neutral value of every catalog feature
func Defaults() map[string]float64 {
	out := make(map[string]float64, len(catalog))
	for _, s := range catalog {
		out[s.Name] = s.Default
	}
	return out
}
