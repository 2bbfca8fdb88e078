package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/courtside/internal/models"
)

// Status distinguishes a found signal from no signal and from a failure
type Status string

// Outcome statuses
const (
	StatusSignal   Status = "signal"
	StatusNoSignal Status = "no_signal"
	StatusFailed   Status = "failed"
)

// Outcome is the result of analyzing one matchup. Recommendation is always
// set; for a failure it is a no-bet with a diagnostic rationale and Err holds
// the cause.
type Outcome struct {
	Status         Status                `json:"status"`
	Recommendation models.Recommendation `json:"recommendation"`
	Err            error                 `json:"-"`
	Duration       time.Duration         `json:"duration"`
}

// Failed reports whether the analysis failed
func (o Outcome) Failed() bool { return o.Status == StatusFailed }

// ErrorMessage returns the failure message or an empty string
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

func rationale(rec models.Recommendation, ml, sp leg) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1f%% / %s %.1f%%", rec.Matchup.Home, rec.HomeWinProb*100, rec.Matchup.Away, rec.AwayWinProb*100)
	if rec.PredictedMargin != nil {
		fmt.Fprintf(&b, "; margin %+.1f", *rec.PredictedMargin)
	} else {
		b.WriteString("; margin n/a")
	}
	if rec.SpreadLine != nil {
		fmt.Fprintf(&b, "; line %+.1f", *rec.SpreadLine)
	} else {
		b.WriteString("; line n/a")
	}
	if sp.coverage != nil {
		fmt.Fprintf(&b, "; coverage %+.1f", *sp.coverage)
	}
	if ml.homeEdge != nil {
		fmt.Fprintf(&b, "; home ML edge %+.1f%%", *ml.homeEdge*100)
	}
	if ml.awayEdge != nil {
		fmt.Fprintf(&b, "; away ML edge %+.1f%%", *ml.awayEdge*100)
	}
	if len(ml.skipped) > 0 {
		fmt.Fprintf(&b, "; stale quote skipped for %s", strings.Join(ml.skipped, ", "))
	}
	if len(rec.Overrides) > 0 {
		fmt.Fprintf(&b, "; overrides %s", strings.Join(rec.Overrides, ", "))
	}
	if rec.Side == models.SidePass {
		b.WriteString("; no bet")
	} else {
		fmt.Fprintf(&b, "; pick %s edge %+.1f%% (%s)", rec.Side, rec.Edge*100, rec.Confidence)
	}
	return b.String()
}
