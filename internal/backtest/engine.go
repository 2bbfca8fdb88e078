// Package backtest evaluates the outcome model on games it was not trained on.
package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/ml"
)

// Predictor maps a feature vector to a win probability
type Predictor interface {
	Predict(vec features.Vector) (float64, error)
}

// Result is a complete backtest run
type Result struct {
	RunID       uuid.UUID            `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Cutoff      time.Time            `json:"cutoff"`
	TrainRows   int                  `json:"train_rows"`
	TestRows    int                  `json:"test_rows"`
	ModelMetric ml.ClassifierMetrics `json:"model"`
	Summary     Summary              `json:"summary"`
	WalkForward *WalkForwardResult   `json:"walk_forward,omitempty"`
	Duration    time.Duration        `json:"duration"`
}

// Engine orchestrates backtesting runs
type Engine struct {
	config Config
	train  ml.TrainConfig
	logger *logrus.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg Config, train ml.TrainConfig, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{config: cfg, train: train, logger: logger}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() Config {
	return e.config
}

// Run trains on the earlier part of ds and evaluates on the later part. Rows
// from one game date never straddle the split.
func (e *Engine) Run(ctx context.Context, ds *features.Dataset) (*Result, error) {
	start := time.Now()
	log := e.logger.WithField("component", "backtest")

	res, err := e.run(ctx, ds, log)
	if err != nil {
		metrics.RecordBacktestRun("failure", time.Since(start).Seconds())
		return nil, err
	}
	res.Duration = time.Since(start)
	metrics.RecordBacktestRun("success", res.Duration.Seconds())
	for _, t := range res.Summary.ByThreshold {
		metrics.UpdateBacktestAccuracy(ThresholdLabel(t.Threshold), t.Accuracy)
	}
	for _, b := range res.Summary.Bets {
		metrics.UpdateBacktestROI(ThresholdLabel(b.Threshold), b.ROI)
	}

	log.WithFields(logrus.Fields{
		"run_id":      res.RunID,
		"cutoff":      res.Cutoff.Format("2006-01-02"),
		"train_rows":  res.TrainRows,
		"test_rows":   res.TestRows,
		"accuracy":    res.Summary.Accuracy,
		"auc":         res.Summary.AUC,
		"duration_ms": res.Duration.Milliseconds(),
	}).Info("Backtest completed")
	return res, nil
}

func (e *Engine) run(ctx context.Context, ds *features.Dataset, log *logrus.Entry) (*Result, error) {
	if ds == nil || len(ds.Rows) == 0 {
		return nil, fmt.Errorf("backtest dataset is empty")
	}
	train, test, cutoff, err := SplitByDate(ds.Rows, e.config.TestSize)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"train_rows": len(train),
		"test_rows":  len(test),
		"cutoff":     cutoff.Format("2006-01-02"),
	}).Info("Starting backtest run")

	model := ml.NewOutcomeModel(e.logger)
	X, y := matrix(train)
	trained, err := model.Train(ctx, ds.Names, X, y, e.train)
	if err != nil {
		return nil, err
	}
	preds, err := Predict(model, test)
	if err != nil {
		return nil, err
	}
	summary, err := Evaluate(preds, e.config)
	if err != nil {
		return nil, err
	}
	if err := e.bootstrap(ctx, preds, &summary); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Cutoff:      cutoff,
		TrainRows:   len(train),
		TestRows:    len(test),
		ModelMetric: trained,
		Summary:     summary,
	}
	if e.config.WalkForward {
		wf, err := RunWalkForward(ctx, ds, e.config.Months, e.train, e.logger)
		if err != nil {
			return nil, err
		}
		res.WalkForward = &wf
	}
	return res, nil
}

// bootstrap attaches a resampled ROI distribution to every bet threshold with bets
func (e *Engine) bootstrap(ctx context.Context, preds []Prediction, s *Summary) error {
	if e.config.BootstrapIterations == 0 {
		return nil
	}
	payout, err := WinPayout(e.config.AmericanOdds, e.config.Stake)
	if err != nil {
		return err
	}
	pay, _ := payout.Float64()
	for i := range s.Bets {
		var outcomes []bool
		for _, p := range preds {
			if p.Probability >= s.Bets[i].Threshold {
				outcomes = append(outcomes, p.Won)
			}
		}
		if len(outcomes) == 0 {
			continue
		}
		br, err := Bootstrap(ctx, outcomes, pay, e.config.Stake, e.config.BootstrapIterations, e.config.Seed)
		if err != nil {
			return err
		}
		s.Bets[i].Bootstrap = &br
	}
	return nil
}

// SplitByDate orders rows by game date and holds out roughly the last
// testSize share, moving the cut forward to the next date boundary
func SplitByDate(rows []features.Row, testSize float64) (train, test []features.Row, cutoff time.Time, err error) {
	ordered := make([]features.Row, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Target.Date.Before(ordered[j].Target.Date)
	})

	cut := int(float64(len(ordered)) * (1 - testSize))
	for cut > 0 && cut < len(ordered) && ordered[cut].Target.Date.Equal(ordered[cut-1].Target.Date) {
		cut++
	}
	if cut <= 0 || cut >= len(ordered) {
		return nil, nil, time.Time{}, fmt.Errorf("cannot hold out %.0f%% of %d rows across distinct dates", testSize*100, len(rows))
	}
	return ordered[:cut], ordered[cut:], ordered[cut].Target.Date, nil
}

// Predict scores every row with model
func Predict(model Predictor, rows []features.Row) ([]Prediction, error) {
	out := make([]Prediction, len(rows))
	for i, r := range rows {
		p, err := model.Predict(r.Vector)
		if err != nil {
			return nil, fmt.Errorf("predicting %s on %s: %w", r.Target.Team, r.Target.Date.Format("2006-01-02"), err)
		}
		out[i] = Prediction{
			Team:        r.Target.Team,
			Opponent:    r.Target.Opponent,
			Date:        r.Target.Date,
			Home:        r.Target.Home,
			Probability: p,
			Won:         r.Won,
		}
	}
	return out, nil
}

func matrix(rows []features.Row) ([][]float64, []float64) {
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		X[i] = r.Vector.Values()
		if r.Won {
			y[i] = 1
		}
	}
	return X, y
}
