package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/courtside/internal/market"
	"github.com/yourusername/courtside/internal/ml"
)

// Prediction is the model's win probability for one held-out team game
type Prediction struct {
	Team        string    `json:"team"`
	Opponent    string    `json:"opponent"`
	Date        time.Time `json:"date"`
	Home        bool      `json:"home"`
	Probability float64   `json:"probability"`
	Won         bool      `json:"won"`
}

// ThresholdAccuracy is how often teams given at least Threshold actually won
type ThresholdAccuracy struct {
	Threshold float64 `json:"threshold"`
	Games     int     `json:"games"`
	Accuracy  float64 `json:"accuracy"`
}

// BetSimulation is the flat-stake record of backing every team at or above Threshold
type BetSimulation struct {
	Threshold   float64          `json:"threshold"`
	Bets        int              `json:"bets"`
	Wins        int              `json:"wins"`
	Losses      int              `json:"losses"`
	WinRate     float64          `json:"win_rate"`
	Profit      float64          `json:"profit"`
	ROI         float64          `json:"roi"`
	MaxDrawdown float64          `json:"max_drawdown"`
	Equity      EquityCurve      `json:"equity,omitempty"`
	Bootstrap   *BootstrapResult `json:"bootstrap,omitempty"`
}

// MonthlyAccuracy is the directional accuracy of one calendar month
type MonthlyAccuracy struct {
	Month    string  `json:"month"`
	Games    int     `json:"games"`
	Accuracy float64 `json:"accuracy"`
}

// Summary is the evaluation of a set of predictions
type Summary struct {
	Games       int                 `json:"games"`
	Accuracy    float64             `json:"accuracy"`
	AUC         float64             `json:"auc"`
	ByThreshold []ThresholdAccuracy `json:"by_threshold"`
	Bets        []BetSimulation     `json:"bets"`
	Monthly     []MonthlyAccuracy   `json:"monthly"`
}

// Evaluate computes overall accuracy, accuracy by confidence, flat-bet results
// and the monthly breakdown for preds
func Evaluate(preds []Prediction, cfg Config) (Summary, error) {
	payout, err := WinPayout(cfg.AmericanOdds, cfg.Stake)
	if err != nil {
		return Summary{}, err
	}
	y, p := labels(preds)
	s := Summary{
		Games:    len(preds),
		Accuracy: ml.Accuracy(y, p),
		AUC:      ml.AUC(y, p),
		Monthly:  MonthlyBreakdown(preds, cfg.Months),
	}
	for _, t := range cfg.AccuracyThresholds {
		s.ByThreshold = append(s.ByThreshold, AccuracyAt(preds, t))
	}
	for _, t := range cfg.BetThresholds {
		s.Bets = append(s.Bets, SimulateFlatBets(preds, t, cfg.Stake, payout))
	}
	return s, nil
}

// AccuracyAt returns the share of wins among predictions at or above threshold
func AccuracyAt(preds []Prediction, threshold float64) ThresholdAccuracy {
	out := ThresholdAccuracy{Threshold: threshold}
	wins := 0
	for _, p := range preds {
		if p.Probability >= threshold {
			out.Games++
			if p.Won {
				wins++
			}
		}
	}
	if out.Games > 0 {
		out.Accuracy = float64(wins) / float64(out.Games)
	}
	return out
}

// WinPayout is the profit on a winning stake at the given American price
func WinPayout(american int, stake float64) (decimal.Decimal, error) {
	d, err := market.AmericanToDecimal(american)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromFloat(stake)), nil
}

// SimulateFlatBets backs every prediction at or above threshold in date order.
// A win returns payout and a loss costs stake.
func SimulateFlatBets(preds []Prediction, threshold, stake float64, payout decimal.Decimal) BetSimulation {
	sim := BetSimulation{Threshold: threshold}
	ordered := byDate(preds)
	loss := decimal.NewFromFloat(stake)
	bankroll := decimal.Zero
	for _, p := range ordered {
		if p.Probability < threshold {
			continue
		}
		sim.Bets++
		if p.Won {
			sim.Wins++
			bankroll = bankroll.Add(payout)
		} else {
			sim.Losses++
			bankroll = bankroll.Sub(loss)
		}
		value, _ := bankroll.Float64()
		sim.Equity = sim.Equity.Append(p.Date, value)
	}
	if sim.Bets == 0 {
		return sim
	}
	sim.WinRate = float64(sim.Wins) / float64(sim.Bets)
	sim.Profit, _ = bankroll.Round(2).Float64()
	staked := loss.Mul(decimal.NewFromInt(int64(sim.Bets)))
	sim.ROI, _ = bankroll.Div(staked).Float64()
	sim.MaxDrawdown = sim.Equity.MaxDrawdown()
	return sim
}

// MonthlyBreakdown returns directional accuracy for the last n calendar months
// present in preds, oldest first. n <= 0 returns every month.
func MonthlyBreakdown(preds []Prediction, n int) []MonthlyAccuracy {
	type tally struct{ games, correct int }
	months := make(map[string]*tally)
	for _, p := range preds {
		key := p.Date.Format("2006-01")
		t, ok := months[key]
		if !ok {
			t = &tally{}
			months[key] = t
		}
		t.games++
		if (p.Probability >= 0.5) == p.Won {
			t.correct++
		}
	}
	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if n > 0 && len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	out := make([]MonthlyAccuracy, len(keys))
	for i, k := range keys {
		t := months[k]
		out[i] = MonthlyAccuracy{Month: k, Games: t.games, Accuracy: float64(t.correct) / float64(t.games)}
	}
	return out
}

// ThresholdLabel renders a threshold as a metric label
func ThresholdLabel(t float64) string {
	return fmt.Sprintf("%.2f", t)
}

func labels(preds []Prediction) (y, p []float64) {
	y = make([]float64, len(preds))
	p = make([]float64, len(preds))
	for i, pr := range preds {
		if pr.Won {
			y[i] = 1
		}
		p[i] = pr.Probability
	}
	return y, p
}

func byDate(preds []Prediction) []Prediction {
	out := make([]Prediction, len(preds))
	copy(out, preds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
