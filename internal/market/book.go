package market

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/courtside/internal/models"
)

// BookGame is one matchup in a book file
type BookGame struct {
	Matchup string    `json:"matchup"`
	Home    *TeamOdds `json:"home,omitempty"`
	Away    *TeamOdds `json:"away,omitempty"`
}

// BookDay is one date in a book file
type BookDay struct {
	Date  string     `json:"date"`
	Games []BookGame `json:"games"`
}

type bookEntry struct {
	matchup    models.Matchup
	home, away *TeamOdds
}

// Book is an in-memory Source filled from a file or by hand
type Book struct {
	mu    sync.RWMutex
	devig bool
	days  map[string][]bookEntry
}

// NewBook creates an empty book
func NewBook(devig bool) *Book {
	return &Book{devig: devig, days: make(map[string][]bookEntry)}
}

// ReadBookFile reads a JSON array of BookDay
func ReadBookFile(path string) ([]BookDay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read book file: %w", err)
	}
	var days []BookDay
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("failed to parse book file: %w", err)
	}
	return days, nil
}

// LoadBookFile reads a book file into a new Book
func LoadBookFile(path string, devig bool) (*Book, error) {
	days, err := ReadBookFile(path)
	if err != nil {
		return nil, err
	}
	b := NewBook(devig)
	err = eachBookGame(days, func(m models.Matchup, home, away *TeamOdds) error {
		return b.Add(m, withTeam(home, m.Home), withTeam(away, m.Away))
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// withTeam fills in the team of odds listed under a matchup side
func withTeam(o *TeamOdds, team string) *TeamOdds {
	if o == nil || o.Team != "" {
		return o
	}
	c := *o
	c.Team = team
	return &c
}

// eachBookGame parses every game in days and calls fn in file order
func eachBookGame(days []BookDay, fn func(m models.Matchup, home, away *TeamOdds) error) error {
	for _, day := range days {
		date, err := models.ParseDate(day.Date)
		if err != nil {
			return err
		}
		for _, g := range day.Games {
			m, err := models.ParseMatchup(g.Matchup, date)
			if err != nil {
				return err
			}
			if err := fn(m, g.Home, g.Away); err != nil {
				return fmt.Errorf("%s on %s: %w", g.Matchup, day.Date, err)
			}
		}
	}
	return nil
}

// Add registers a matchup and its odds. Odds may be nil.
func (b *Book) Add(m models.Matchup, home, away *TeamOdds) error {
	m.Date = models.NormalizeDate(m.Date)
	if err := m.Validate(); err != nil {
		return err
	}
	if _, err := BuildQuotes(m, home, away, b.devig); err != nil {
		return err
	}
	key := m.Date.Format(models.DateLayout)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.days[key] {
		if e.matchup.Key() == m.Key() {
			b.days[key][i] = bookEntry{matchup: m, home: home, away: away}
			return nil
		}
	}
	b.days[key] = append(b.days[key], bookEntry{matchup: m, home: home, away: away})
	return nil
}

// Schedule returns the matchups on date ordered by label
func (b *Book) Schedule(_ context.Context, date time.Time) ([]models.Matchup, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries := b.days[models.NormalizeDate(date).Format(models.DateLayout)]
	out := make([]models.Matchup, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.matchup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label() < out[j].Label() })
	return out, nil
}

// Quotes returns the quotes for m, empty when the book has none
func (b *Book) Quotes(_ context.Context, m models.Matchup) (models.MatchupQuotes, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m.Date = models.NormalizeDate(m.Date)
	for _, e := range b.days[m.Date.Format(models.DateLayout)] {
		if e.matchup.Key() == m.Key() {
			return BuildQuotes(e.matchup, e.home, e.away, b.devig)
		}
	}
	return models.MatchupQuotes{}, nil
}
