package models

import (
	"time"

	"github.com/google/uuid"
)

// BetSide is the selected side of a recommendation
type BetSide string

// Bet sides
const (
	SideHomeMoneyline BetSide = "HOME_ML"
	SideAwayMoneyline BetSide = "AWAY_ML"
	SideHomeSpread    BetSide = "HOME_SPREAD"
	SideAwaySpread    BetSide = "AWAY_SPREAD"
	SidePass          BetSide = "PASS"
)

// IsMoneyline reports whether the side is a moneyline pick
func (s BetSide) IsMoneyline() bool {
	return s == SideHomeMoneyline || s == SideAwayMoneyline
}

// IsSpread reports whether the side is a spread pick
func (s BetSide) IsSpread() bool {
	return s == SideHomeSpread || s == SideAwaySpread
}

// Confidence is the coarse tier of an edge
type Confidence string

// Confidence tiers
const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Rank orders tiers for sorting, higher is stronger
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// Recommendation is the decision for one matchup in one scan cycle. It is never
// mutated after creation.
type Recommendation struct {
	ID              uuid.UUID  `json:"id"`
	Matchup         Matchup    `json:"matchup"`
	Side            BetSide    `json:"side"`
	Edge            float64    `json:"edge"`
	Confidence      Confidence `json:"confidence"`
	HomeWinProb     float64    `json:"home_win_prob"`
	AwayWinProb     float64    `json:"away_win_prob"`
	PredictedMargin *float64   `json:"predicted_margin,omitempty"`
	SpreadLine      *float64   `json:"spread_line,omitempty"`
	Coverage        *float64   `json:"coverage,omitempty"`
	Overrides       []string   `json:"overrides,omitempty"`
	Rationale       string     `json:"rationale"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HasSignal reports whether the recommendation is a bet at or above threshold
func (r Recommendation) HasSignal(threshold float64) bool {
	return r.Side != SidePass && r.Edge >= threshold
}

// NoBet builds a pass recommendation with zero edge
func NoBet(m Matchup, rationale string, now time.Time) Recommendation {
	return Recommendation{
		ID:          uuid.New(),
		Matchup:     m,
		Side:        SidePass,
		Confidence:  ConfidenceLow,
		HomeWinProb: 0.5,
		AwayWinProb: 0.5,
		Rationale:   rationale,
		CreatedAt:   now,
	}
}
