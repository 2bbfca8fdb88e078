package models

import (
	"fmt"
	"time"
)

// QuoteBounds are the freshness and sanity limits a market quote must satisfy
type QuoteBounds struct {
	MinProbability float64       `mapstructure:"min_probability" json:"min_probability"`
	MaxProbability float64       `mapstructure:"max_probability" json:"max_probability"`
	MaxAge         time.Duration `mapstructure:"max_age" json:"max_age"`
}

// DefaultQuoteBounds treats implied probabilities at or beyond 5%/95% as post-resolution
func DefaultQuoteBounds() QuoteBounds {
	return QuoteBounds{MinProbability: 0.05, MaxProbability: 0.95, MaxAge: 6 * time.Hour}
}

// MarketQuote is the market's belief about one team in one matchup.
// RawProbability holds the quoted price before vig removal and is zero when
// ImpliedProbability is the quoted price itself.
type MarketQuote struct {
	Team               string    `json:"team" validate:"required,len=3,uppercase"`
	ImpliedProbability float64   `json:"implied_probability" validate:"gte=0,lte=1"`
	RawProbability     float64   `json:"raw_probability,omitempty" validate:"gte=0,lte=1"`
	ObservedAt         time.Time `json:"observed_at"`
	Source             string    `json:"source,omitempty"`
}

// Quoted returns the probability as the market quoted it
func (q MarketQuote) Quoted() float64 {
	if q.RawProbability > 0 {
		return q.RawProbability
	}
	return q.ImpliedProbability
}

// Check returns a StaleQuoteError when the quote is outside bounds at now.
// The sanity bounds apply to the quoted price, not the de-vigged one.
// A zero ObservedAt skips the age check.
func (q MarketQuote) Check(now time.Time, bounds QuoteBounds) error {
	p := q.Quoted()
	if p >= bounds.MaxProbability || p <= bounds.MinProbability {
		return &StaleQuoteError{
			Team:        q.Team,
			Probability: p,
			Reason:      fmt.Sprintf("implied probability outside (%.2f, %.2f)", bounds.MinProbability, bounds.MaxProbability),
		}
	}
	if bounds.MaxAge > 0 && !q.ObservedAt.IsZero() {
		if age := now.Sub(q.ObservedAt); age > bounds.MaxAge {
			return &StaleQuoteError{
				Team:        q.Team,
				Probability: p,
				Reason:      fmt.Sprintf("quote is %s old, limit %s", age.Round(time.Second), bounds.MaxAge),
			}
		}
	}
	return nil
}

// MatchupQuotes groups the quotes available for one matchup.
// SpreadLine is home-signed: negative favors the home team.
type MatchupQuotes struct {
	Home       *MarketQuote `json:"home,omitempty"`
	Away       *MarketQuote `json:"away,omitempty"`
	SpreadLine *float64     `json:"spread_line,omitempty"`
}
