package backtest

import (
	"fmt"

	"github.com/yourusername/courtside/internal/config"
)

// Config controls a hold-out evaluation
type Config struct {
	AccuracyThresholds  []float64
	BetThresholds       []float64
	Stake               float64
	AmericanOdds        int
	Months              int
	TestSize            float64
	WalkForward         bool
	BootstrapIterations int
	Seed                int64
	OutputPath          string
}

// DefaultConfig returns the standard evaluation: accuracy at 50-70% confidence,
// flat $100 bets at -110 from 55%, six months of monthly accuracy
func DefaultConfig() Config {
	return Config{
		AccuracyThresholds:  []float64{0.50, 0.55, 0.60, 0.65, 0.70},
		BetThresholds:       []float64{0.55, 0.60, 0.65},
		Stake:               100,
		AmericanOdds:        -110,
		Months:              6,
		TestSize:            0.2,
		BootstrapIterations: 1000,
		Seed:                42,
	}
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig, seed int64) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("backtest config is required")
	}
	bt := Config{
		AccuracyThresholds:  append([]float64(nil), cfg.AccuracyThresholds...),
		BetThresholds:       append([]float64(nil), cfg.BetThresholds...),
		Stake:               cfg.Stake,
		AmericanOdds:        cfg.AmericanOdds,
		Months:              cfg.Months,
		TestSize:            cfg.TestSize,
		WalkForward:         cfg.WalkForward,
		BootstrapIterations: cfg.Bootstrap,
		Seed:                seed,
		OutputPath:          cfg.OutputPath,
	}
	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (c Config) Validate() error {
	if len(c.AccuracyThresholds) == 0 {
		return fmt.Errorf("at least one accuracy threshold is required")
	}
	for _, t := range append(append([]float64(nil), c.AccuracyThresholds...), c.BetThresholds...) {
		if t < 0.5 || t >= 1 {
			return fmt.Errorf("threshold %.2f must be in [0.5, 1)", t)
		}
	}
	if c.Stake <= 0 {
		return fmt.Errorf("stake must be positive")
	}
	if c.AmericanOdds > -100 && c.AmericanOdds < 100 {
		return fmt.Errorf("american odds %d are not a valid price", c.AmericanOdds)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test size must be between 0 and 1")
	}
	if c.Months < 0 {
		return fmt.Errorf("months cannot be negative")
	}
	if c.BootstrapIterations < 0 {
		return fmt.Errorf("bootstrap iterations cannot be negative")
	}
	return nil
}
