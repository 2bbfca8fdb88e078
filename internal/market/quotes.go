package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/courtside/internal/models"
)

// TeamOdds is one team's raw price in one matchup. Exactly one of American,
// Decimal or Probability is needed for a moneyline quote.
type TeamOdds struct {
	Team        string           `json:"team"`
	American    *int             `json:"american,omitempty"`
	Decimal     *decimal.Decimal `json:"decimal,omitempty"`
	Probability *float64         `json:"probability,omitempty"`
	SpreadLine  *float64         `json:"spread_line,omitempty"`
	ObservedAt  time.Time        `json:"observed_at"`
	Source      string           `json:"source,omitempty"`
}

// Implied resolves the implied win probability. ok is false when the odds
// carry no moneyline price.
func (o TeamOdds) Implied() (p decimal.Decimal, ok bool, err error) {
	switch {
	case o.Probability != nil:
		p = decimal.NewFromFloat(*o.Probability)
		if p.LessThan(decimal.Zero) || p.GreaterThan(one) {
			return decimal.Zero, false, fmt.Errorf("%w: probability %s for %s", ErrInvalidOdds, p, o.Team)
		}
		return p, true, nil
	case o.Decimal != nil:
		p, err = DecimalToImplied(*o.Decimal)
	case o.American != nil:
		p, err = AmericanToImplied(*o.American)
	default:
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%s: %w", o.Team, err)
	}
	return p, true, nil
}

// Quote converts the odds into a market quote, or nil without a moneyline price
func (o TeamOdds) Quote() (*models.MarketQuote, error) {
	p, ok, err := o.Implied()
	if err != nil || !ok {
		return nil, err
	}
	f, _ := p.Float64()
	return &models.MarketQuote{
		Team:               o.Team,
		ImpliedProbability: f,
		ObservedAt:         o.ObservedAt,
		Source:             o.Source,
	}, nil
}

// BuildQuotes assembles matchup quotes from per-team odds. The spread line is
// taken home-signed from the home odds, else negated from the away odds. With
// devig set, a two-sided moneyline is normalized to sum to one and the quoted
// prices are kept for the stale check.
func BuildQuotes(m models.Matchup, home, away *TeamOdds, devig bool) (models.MatchupQuotes, error) {
	var q models.MatchupQuotes
	var err error
	if home != nil && home.Team != m.Home {
		return q, models.NewDataError(home.Team, "home odds do not belong to %s", m.Label())
	}
	if away != nil && away.Team != m.Away {
		return q, models.NewDataError(away.Team, "away odds do not belong to %s", m.Label())
	}
	if home != nil {
		if q.Home, err = home.Quote(); err != nil {
			return models.MatchupQuotes{}, err
		}
		if home.SpreadLine != nil {
			v := *home.SpreadLine
			q.SpreadLine = &v
		}
	}
	if away != nil {
		if q.Away, err = away.Quote(); err != nil {
			return models.MatchupQuotes{}, err
		}
		if q.SpreadLine == nil && away.SpreadLine != nil {
			v := -*away.SpreadLine
			q.SpreadLine = &v
		}
	}
	if devig && q.Home != nil && q.Away != nil {
		h, a := decimal.NewFromFloat(q.Home.ImpliedProbability), decimal.NewFromFloat(q.Away.ImpliedProbability)
		fh, fa, err := RemoveVig(h, a)
		if err == nil {
			q.Home.RawProbability = q.Home.ImpliedProbability
			q.Away.RawProbability = q.Away.ImpliedProbability
			q.Home.ImpliedProbability, _ = fh.Float64()
			q.Away.ImpliedProbability, _ = fa.Float64()
		}
	}
	return q, nil
}

// Source supplies the day's schedule and the quotes for each matchup
type Source interface {
	Schedule(ctx context.Context, date time.Time) ([]models.Matchup, error)
	Quotes(ctx context.Context, m models.Matchup) (models.MatchupQuotes, error)
}
