// Package market converts bookmaker prices into market quotes and serves them
// per matchup.
package market

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidOdds reports a price that cannot be converted
	ErrInvalidOdds = errors.New("invalid odds")

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// AmericanToDecimal converts American odds to decimal odds.
// +150 becomes 2.50, -150 becomes 1.6667.
func AmericanToDecimal(american int) (decimal.Decimal, error) {
	if american == 0 || (american > -100 && american < 100) {
		return decimal.Zero, fmt.Errorf("%w: american %d", ErrInvalidOdds, american)
	}
	a := decimal.NewFromInt(int64(american))
	if american > 0 {
		return a.Div(hundred).Add(one), nil
	}
	return hundred.Div(a.Neg()).Add(one), nil
}

// DecimalToImplied converts decimal odds to the implied probability 1/d
func DecimalToImplied(d decimal.Decimal) (decimal.Decimal, error) {
	if d.LessThanOrEqual(one) {
		return decimal.Zero, fmt.Errorf("%w: decimal %s", ErrInvalidOdds, d)
	}
	return one.Div(d), nil
}

// AmericanToImplied converts American odds straight to implied probability
func AmericanToImplied(american int) (decimal.Decimal, error) {
	d, err := AmericanToDecimal(american)
	if err != nil {
		return decimal.Zero, err
	}
	return DecimalToImplied(d)
}

// ImpliedToAmerican converts a probability to the nearest American price.
// Favorites are negative.
func ImpliedToAmerican(p decimal.Decimal) (int, error) {
	if p.LessThanOrEqual(decimal.Zero) || p.GreaterThanOrEqual(one) {
		return 0, fmt.Errorf("%w: probability %s", ErrInvalidOdds, p)
	}
	q := one.Sub(p)
	if p.GreaterThan(decimal.NewFromFloat(0.5)) {
		return int(p.Div(q).Mul(hundred).Round(0).Neg().IntPart()), nil
	}
	return int(q.Div(p).Mul(hundred).Round(0).IntPart()), nil
}

// RemoveVig normalizes a two-way market so both sides sum to one.
// Markets with no overround are returned unchanged.
func RemoveVig(a, b decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if a.LessThanOrEqual(decimal.Zero) || b.LessThanOrEqual(decimal.Zero) || a.GreaterThanOrEqual(one) || b.GreaterThanOrEqual(one) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: probabilities %s/%s", ErrInvalidOdds, a, b)
	}
	total := a.Add(b)
	if total.LessThanOrEqual(one) {
		return a, b, nil
	}
	return a.Div(total), b.Div(total), nil
}

// Overround returns the bookmaker margin of a two-way market
func Overround(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b).Sub(one)
}
