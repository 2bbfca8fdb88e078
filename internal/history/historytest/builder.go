// Package historytest builds synthetic game histories for tests.
package historytest

import (
	"time"

	"github.com/yourusername/courtside/internal/models"
)

// Builder accumulates games and emits both teams' records for each
type Builder struct {
	records []models.PerformanceRecord
}

// Day returns midnight UTC on the given date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Game records a completed game. homePts and awayPts decide the winner.
func (b *Builder) Game(date time.Time, home, away string, homePts, awayPts float64) *Builder {
	homeResult, awayResult := models.ResultWin, models.ResultLoss
	if awayPts > homePts {
		homeResult, awayResult = models.ResultLoss, models.ResultWin
	}
	b.records = append(b.records,
		record(home, away, date, true, homeResult, homePts, homePts-awayPts),
		record(away, home, date, false, awayResult, awayPts, awayPts-homePts),
	)
	return b
}

// Single records one side of a game only
func (b *Builder) Single(date time.Time, team, opponent string, home, won bool, pts, margin float64) *Builder {
	result := models.ResultLoss
	if won {
		result = models.ResultWin
	}
	b.records = append(b.records, record(team, opponent, date, home, result, pts, margin))
	return b
}

// Records returns the accumulated records
func (b *Builder) Records() []models.PerformanceRecord {
	out := make([]models.PerformanceRecord, len(b.records))
	copy(out, b.records)
	return out
}

func record(team, opp string, date time.Time, home bool, result string, pts, margin float64) models.PerformanceRecord {
	return models.PerformanceRecord{
		Team:      team,
		Opponent:  opp,
		GameDate:  date,
		IsHome:    home,
		Result:    result,
		Points:    pts,
		Assists:   24,
		Rebounds:  45,
		Steals:    7,
		Blocks:    5,
		Turnovers: 13,
		FGPct:     0.47,
		FG3Pct:    0.36,
		FTPct:     0.78,
		PlusMinus: margin,
	}
}
