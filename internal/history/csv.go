package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/courtside/internal/models"
)

// Column names emitted by the historical game collector
const (
	colGameDate  = "GAME_DATE"
	colTeam      = "TEAM_ABBREVIATION"
	colMatchup   = "MATCHUP"
	colWL        = "WL"
	colWon       = "WON"
	colPoints    = "PTS"
	colAssists   = "AST"
	colRebounds  = "REB"
	colSteals    = "STL"
	colBlocks    = "BLK"
	colTurnovers = "TOV"
	colFGPct     = "FG_PCT"
	colFG3Pct    = "FG3_PCT"
	colFTPct     = "FT_PCT"
	colPlusMinus = "PLUS_MINUS"
)

var dateLayouts = []string{models.DateLayout, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "Jan 02, 2006"}

// LoadReport counts rows read and rows skipped with the reason for each skip
type LoadReport struct {
	Rows    int
	Loaded  int
	Skipped map[string]int
}

func (r LoadReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// ReadCSVFile opens path and reads performance records from it
func ReadCSVFile(path string) ([]models.PerformanceRecord, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads performance records in the collector's column layout. Games without
// a result yet are skipped and counted in the report. A missing date, team, matchup
// or result column is a DataError.
func ReadCSV(r io.Reader) ([]models.PerformanceRecord, LoadReport, error) {
	report := LoadReport{Skipped: make(map[string]int)}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, models.NewDataError("", "history file is empty")
		}
		return nil, report, fmt.Errorf("failed to read history header: %w", err)
	}

	idx, err := indexHeader(header)
	if err != nil {
		return nil, report, err
	}

	var records []models.PerformanceRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("failed to read history row %d: %w", report.Rows+1, err)
		}
		report.Rows++

		rec, reason, err := parseRow(row, idx)
		if err != nil {
			return nil, report, fmt.Errorf("history row %d: %w", report.Rows, err)
		}
		if reason != "" {
			report.Skipped[reason]++
			continue
		}
		records = append(records, rec)
		report.Loaded++
	}

	return records, report, nil
}

// ReadRows parses rows already split into fields, such as a stats API result set,
// using the same column layout and skip rules as ReadCSV.
func ReadRows(header []string, rows [][]string) ([]models.PerformanceRecord, LoadReport, error) {
	report := LoadReport{Skipped: make(map[string]int)}
	idx, err := indexHeader(header)
	if err != nil {
		return nil, report, err
	}

	records := make([]models.PerformanceRecord, 0, len(rows))
	for _, row := range rows {
		report.Rows++
		rec, reason, err := parseRow(row, idx)
		if err != nil {
			return nil, report, fmt.Errorf("history row %d: %w", report.Rows, err)
		}
		if reason != "" {
			report.Skipped[reason]++
			continue
		}
		records = append(records, rec)
		report.Loaded++
	}
	return records, report, nil
}

func indexHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colGameDate, colTeam, colMatchup} {
		if _, ok := idx[required]; !ok {
			return nil, models.NewDataError("", "history file missing required column %s", required)
		}
	}
	_, hasWL := idx[colWL]
	_, hasWon := idx[colWon]
	if !hasWL && !hasWon {
		return nil, models.NewDataError("", "history file missing win flag column (%s or %s)", colWL, colWon)
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (models.PerformanceRecord, string, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := strings.ToUpper(field(colWL))
	if result == "" {
		switch field(colWon) {
		case "1", "1.0", "true", "True":
			result = models.ResultWin
		case "0", "0.0", "false", "False":
			result = models.ResultLoss
		}
	}
	if result == "" {
		return models.PerformanceRecord{}, "no result", nil
	}

	date, err := parseDate(field(colGameDate))
	if err != nil {
		return models.PerformanceRecord{}, "", err
	}

	team := strings.ToUpper(field(colTeam))
	opponent, isHome, err := models.PerspectiveFromMatchup(team, field(colMatchup))
	if err != nil {
		return models.PerformanceRecord{}, "", err
	}

	rec := models.PerformanceRecord{
		Team:     team,
		Opponent: opponent,
		GameDate: date,
		IsHome:   isHome,
		Result:   result,
	}
	nums := []struct {
		col string
		dst *float64
	}{
		{colPoints, &rec.Points},
		{colAssists, &rec.Assists},
		{colRebounds, &rec.Rebounds},
		{colSteals, &rec.Steals},
		{colBlocks, &rec.Blocks},
		{colTurnovers, &rec.Turnovers},
		{colFGPct, &rec.FGPct},
		{colFG3Pct, &rec.FG3Pct},
		{colFTPct, &rec.FTPct},
		{colPlusMinus, &rec.PlusMinus},
	}
	for _, n := range nums {
		raw := field(n.col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.PerformanceRecord{}, "", models.NewDataError(team, "column %s: invalid number %q", n.col, raw)
		}
		*n.dst = v
	}
	return rec, "", nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.NormalizeDate(t), nil
		}
	}
	return time.Time{}, models.NewDataError("", "unrecognized game date %q", raw)
}
