package backtest

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/ml"
	"github.com/yourusername/courtside/internal/models"
)

// WalkForwardWindow is one month evaluated by a model trained on every earlier game
type WalkForwardWindow struct {
	Month              string  `json:"month"`
	TrainRows          int     `json:"train_rows"`
	TestRows           int     `json:"test_rows"`
	ValidationAccuracy float64 `json:"validation_accuracy"`
	TestAccuracy       float64 `json:"test_accuracy"`
	TestAUC            float64 `json:"test_auc"`
}

// WalkForwardResult represents a rolling-origin evaluation
type WalkForwardResult struct {
	Windows []WalkForwardWindow `json:"windows"`
	Skipped []string            `json:"skipped,omitempty"`
	// ConsistencyScore is the share of months predicted better than a coin flip
	ConsistencyScore float64 `json:"consistency_score"`
	// OverfitScore is the mean drop from validation to test accuracy
	OverfitScore float64 `json:"overfit_score"`
}

// RunWalkForward retrains once per month for the last n months of ds, each
// time on games strictly before the month, and tests on that month's games.
// A month whose training split is too small is skipped and listed.
func RunWalkForward(ctx context.Context, ds *features.Dataset, n int, train ml.TrainConfig, logger *logrus.Logger) (WalkForwardResult, error) {
	var result WalkForwardResult
	months := monthStarts(ds.Rows)
	if n > 0 && len(months) > n {
		months = months[len(months)-n:]
	}
	log := logger.WithField("component", "backtest")

	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return WalkForwardResult{}, err
		}
		trainRows, testRows := splitMonth(ds.Rows, month)
		label := month.Format("2006-01")

		model := ml.NewOutcomeModel(logger)
		X, y := matrix(trainRows)
		trained, err := model.Train(ctx, ds.Names, X, y, train)
		if err != nil {
			if errors.Is(err, models.ErrTraining) && ctx.Err() == nil {
				log.WithError(err).WithField("month", label).Warn("Skipping walk-forward window")
				result.Skipped = append(result.Skipped, label)
				continue
			}
			return WalkForwardResult{}, err
		}
		preds, err := Predict(model, testRows)
		if err != nil {
			return WalkForwardResult{}, err
		}
		yt, pt := labels(preds)
		result.Windows = append(result.Windows, WalkForwardWindow{
			Month:              label,
			TrainRows:          len(trainRows),
			TestRows:           len(testRows),
			ValidationAccuracy: trained.Accuracy,
			TestAccuracy:       ml.Accuracy(yt, pt),
			TestAUC:            ml.AUC(yt, pt),
		})
	}

	result.ConsistencyScore = CalculateConsistency(result.Windows)
	result.OverfitScore = calculateOverfitScore(result.Windows)
	return result, nil
}

// CalculateConsistency returns the share of windows with test accuracy above 50%
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	better := 0
	for _, w := range windows {
		if w.TestAccuracy > 0.5 {
			better++
		}
	}
	return float64(better) / float64(len(windows))
}

func calculateOverfitScore(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	gap := 0.0
	for _, w := range windows {
		gap += w.ValidationAccuracy - w.TestAccuracy
	}
	return gap / float64(len(windows))
}

// splitMonth returns the rows dated before month and the rows inside it.
// Rows after the month are in neither.
func splitMonth(rows []features.Row, month time.Time) (train, test []features.Row) {
	next := month.AddDate(0, 1, 0)
	for _, r := range rows {
		switch d := r.Target.Date; {
		case d.Before(month):
			train = append(train, r)
		case d.Before(next):
			test = append(test, r)
		}
	}
	return train, test
}

// monthStarts returns the first day of every month with rows, oldest first
func monthStarts(rows []features.Row) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, r := range rows {
		d := r.Target.Date
		m := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
