package models

import (
	"fmt"
	"strings"
	"time"
)

// Matchup is a scheduled game with home and away assigned explicitly
type Matchup struct {
	Home string    `json:"home" validate:"required,len=3,uppercase"`
	Away string    `json:"away" validate:"required,len=3,uppercase,nefield=Home"`
	Date time.Time `json:"date" validate:"required"`
}

// Label renders the matchup in "AWY @ HOM" form
func (m Matchup) Label() string {
	return fmt.Sprintf("%s @ %s", m.Away, m.Home)
}

// Key identifies the matchup on its date
func (m Matchup) Key() string {
	return fmt.Sprintf("%s:%s", m.Date.Format(DateLayout), m.Label())
}

// Validate checks team codes and date
func (m Matchup) Validate() error {
	if err := validate.Struct(m); err != nil {
		return NewDataError("", "invalid matchup %q: %v", m.Label(), err)
	}
	return nil
}

// ParseMatchup reads "AWY @ HOM" or "HOM vs. AWY". Any other shape is rejected:
// home and away are never inferred from listed order.
func ParseMatchup(s string, date time.Time) (Matchup, error) {
	raw := strings.TrimSpace(s)
	var m Matchup
	switch {
	case strings.Contains(raw, " @ "):
		parts := strings.SplitN(raw, " @ ", 2)
		m = Matchup{Away: strings.TrimSpace(parts[0]), Home: strings.TrimSpace(parts[1])}
	case strings.Contains(raw, " vs. "):
		parts := strings.SplitN(raw, " vs. ", 2)
		m = Matchup{Home: strings.TrimSpace(parts[0]), Away: strings.TrimSpace(parts[1])}
	default:
		return Matchup{}, NewDataError("", "matchup %q does not label home and away", s)
	}
	m.Home = strings.ToUpper(m.Home)
	m.Away = strings.ToUpper(m.Away)
	m.Date = NormalizeDate(date)
	if err := m.Validate(); err != nil {
		return Matchup{}, err
	}
	return m, nil
}

// PerspectiveFromMatchup resolves a per-team matchup string ("LAL vs. BOS", "LAL @ BOS")
// into the opponent code and home flag for the listing team.
func PerspectiveFromMatchup(team, s string) (opponent string, isHome bool, err error) {
	m, err := ParseMatchup(s, time.Unix(0, 0))
	if err != nil {
		return "", false, err
	}
	team = strings.ToUpper(strings.TrimSpace(team))
	switch team {
	case m.Home:
		return m.Away, true, nil
	case m.Away:
		return m.Home, false, nil
	default:
		return "", false, NewDataError(team, "team not present in matchup %q", s)
	}
}
