package decision

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
)

// Report summarizes one scan cycle
type Report struct {
	ScanID      uuid.UUID `json:"scan_id"`
	Date        time.Time `json:"date"`
	PolicyVer   string    `json:"policy_version"`
	GeneratedAt time.Time `json:"generated_at"`
	Outcomes    []Outcome `json:"outcomes"`
	Signals     int       `json:"signals"`
	NoSignals   int       `json:"no_signals"`
	Failures    int       `json:"failures"`
}

// NewReport counts outcomes by status. Outcomes keep request order.
func NewReport(date time.Time, policy Policy, outcomes []Outcome, now time.Time) *Report {
	r := &Report{
		ScanID:      uuid.New(),
		Date:        models.NormalizeDate(date),
		PolicyVer:   policy.Version,
		GeneratedAt: now,
		Outcomes:    outcomes,
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSignal:
			r.Signals++
		case StatusFailed:
			r.Failures++
		default:
			r.NoSignals++
		}
	}
	return r
}

// Ranked returns outcomes ordered by edge descending, then confidence, then
// matchup label. Failed outcomes sort last.
func (r *Report) Ranked() []Outcome {
	out := make([]Outcome, len(r.Outcomes))
	copy(out, r.Outcomes)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		ra, rb := a.Recommendation, b.Recommendation
		if ra.Edge != rb.Edge {
			return ra.Edge > rb.Edge
		}
		if ra.Confidence.Rank() != rb.Confidence.Rank() {
			return ra.Confidence.Rank() > rb.Confidence.Rank()
		}
		return ra.Matchup.Label() < rb.Matchup.Label()
	})
	return out
}

// TopPicks returns up to n signal recommendations in rank order
func (r *Report) TopPicks(n int) []models.Recommendation {
	var picks []models.Recommendation
	for _, o := range r.Ranked() {
		if len(picks) >= n {
			break
		}
		if o.Status == StatusSignal {
			picks = append(picks, o.Recommendation)
		}
	}
	return picks
}
