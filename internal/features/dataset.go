package features

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/courtside/internal/models"
)

// DatasetOptions filter which records become training rows
type DatasetOptions struct {
	// MinHistory is the number of prior games a team needs before its game becomes a row
	MinHistory int
	From       time.Time
	To         time.Time
}

// Row is one labelled training example from one team's perspective
type Row struct {
	Target Target
	Vector Vector
	Won    bool
	Margin float64
}

// Dataset is a labelled feature matrix with an account of every row left out
type Dataset struct {
	Names   []string
	Rows    []Row
	Dropped map[string]int
}

// X returns the feature matrix in Names order
func (d *Dataset) X() [][]float64 {
	out := make([][]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Vector.Values()
	}
	return out
}

// WinLabels returns 1 for wins and 0 for losses
func (d *Dataset) WinLabels() []float64 {
	out := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		if r.Won {
			out[i] = 1
		}
	}
	return out
}

// MarginLabels returns the point margin of each row
func (d *Dataset) MarginLabels() []float64 {
	out := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Margin
	}
	return out
}

// DroppedTotal counts all rows left out
func (d *Dataset) DroppedTotal() int {
	total := 0
	for _, n := range d.Dropped {
		total += n
	}
	return total
}

// Dates returns each row's game date
func (d *Dataset) Dates() []time.Time {
	out := make([]time.Time, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Target.Date
	}
	return out
}

// BuildDataset turns every stored record into a labelled row. A record whose
// team or opponent is unknown, or whose team has too little prior history, is
// dropped and counted by reason rather than silently omitted.
func (e *Engineer) BuildDataset(opts DatasetOptions) (*Dataset, error) {
	ds := &Dataset{Names: e.Names(), Dropped: make(map[string]int)}
	for _, rec := range e.store.Records() {
		if !opts.From.IsZero() && rec.GameDate.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && rec.GameDate.After(opts.To) {
			continue
		}
		if opts.MinHistory > 0 && len(e.store.LastN(rec.Team, rec.GameDate, opts.MinHistory)) < opts.MinHistory {
			ds.Dropped["insufficient history"]++
			continue
		}

		oppRec, ok := e.store.GameOn(rec.Opponent, rec.GameDate)
		target := Target{
			Team:     rec.Team,
			Opponent: rec.Opponent,
			Date:     rec.GameDate,
			Home:     rec.IsHome,
			Fixture:  ok && oppRec.Opponent == rec.Team,
		}
		vec, err := e.Build(target)
		if err != nil {
			if errors.Is(err, models.ErrData) {
				ds.Dropped["unknown team"]++
				continue
			}
			return nil, fmt.Errorf("failed to build features for %s on %s: %w", rec.Team, rec.GameDate.Format(models.DateLayout), err)
		}
		ds.Rows = append(ds.Rows, Row{Target: target, Vector: vec, Won: rec.Won(), Margin: rec.PlusMinus})
	}

	if len(ds.Rows) == 0 {
		return ds, models.NewDataError("", "no usable rows (%d dropped)", ds.DroppedTotal())
	}
	return ds, nil
}
