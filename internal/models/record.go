package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Game results as reported by the upstream collector
const (
	ResultWin  = "W"
	ResultLoss = "L"
)

var validate = validator.New()

// PerformanceRecord is one team's result in one game. It is immutable once recorded
// and ordered by (Team, GameDate).
type PerformanceRecord struct {
	Team      string    `db:"team" json:"team" validate:"required,len=3,uppercase"`
	Opponent  string    `db:"opponent" json:"opponent" validate:"required,len=3,uppercase,nefield=Team"`
	GameDate  time.Time `db:"game_date" json:"game_date" validate:"required"`
	IsHome    bool      `db:"is_home" json:"is_home"`
	Result    string    `db:"result" json:"result" validate:"required,oneof=W L"`
	Points    float64   `db:"points" json:"points" validate:"gte=0"`
	Assists   float64   `db:"assists" json:"assists" validate:"gte=0"`
	Rebounds  float64   `db:"rebounds" json:"rebounds" validate:"gte=0"`
	Steals    float64   `db:"steals" json:"steals" validate:"gte=0"`
	Blocks    float64   `db:"blocks" json:"blocks" validate:"gte=0"`
	Turnovers float64   `db:"turnovers" json:"turnovers" validate:"gte=0"`
	FGPct     float64   `db:"fg_pct" json:"fg_pct" validate:"gte=0,lte=1"`
	FG3Pct    float64   `db:"fg3_pct" json:"fg3_pct" validate:"gte=0,lte=1"`
	FTPct     float64   `db:"ft_pct" json:"ft_pct" validate:"gte=0,lte=1"`
	PlusMinus float64   `db:"plus_minus" json:"plus_minus"`
}

// Won reports whether the team won the game
func (r PerformanceRecord) Won() bool {
	return r.Result == ResultWin
}

// WinFlag returns 1 for a win and 0 for a loss
func (r PerformanceRecord) WinFlag() float64 {
	if r.Won() {
		return 1
	}
	return 0
}

// Validate checks required fields and normalizes nothing; callers normalize dates first
func (r PerformanceRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewDataError(r.Team, "invalid performance record on %s: %v", r.GameDate.Format(DateLayout), err)
	}
	return nil
}

// RatingSnapshot is an external team rating observed on a given day
type RatingSnapshot struct {
	Team      string    `db:"team" json:"team" validate:"required,len=3,uppercase"`
	NetRating float64   `db:"net_rating" json:"net_rating"`
	AsOf      time.Time `db:"as_of" json:"as_of" validate:"required"`
}

// DateLayout is the day-granularity layout used across the system
const DateLayout = "2006-01-02"

// NormalizeDate truncates t to its calendar day in t's own location and re-expresses
// that day as midnight UTC so dates from different feeds compare by day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewDataError("", "invalid date %q: %v", s, err)
	}
	return NormalizeDate(t), nil
}
