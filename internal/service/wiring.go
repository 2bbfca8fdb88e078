// Package service runs scan cycles and training jobs over the core packages.
package service

import (
	"time"

	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/decision"
	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/history"
	"github.com/yourusername/courtside/internal/ml"
	"github.com/yourusername/courtside/internal/models"
)

// DecisionConfig maps the decision, overrides and scanner sections onto an engine config
func DecisionConfig(cfg *config.Config) decision.Config {
	d := cfg.Decision
	overrides := make(decision.Overrides, len(cfg.Overrides))
	for team, o := range cfg.Overrides {
		overrides[team] = decision.Override{Player: o.Player, Penalty: o.Penalty}
	}
	return decision.Config{
		Policy: decision.Policy{
			Version:              d.Version,
			MinMoneylineEdge:     d.MinMoneylineEdge,
			MinSpreadCoverage:    d.MinSpreadCoverage,
			SpreadEdgeDivisor:    d.SpreadEdgeDivisor,
			HighConfidenceEdge:   d.HighConfidenceEdge,
			MediumConfidenceEdge: d.MediumConfidenceEdge,
			ProbabilityFloor:     d.ProbabilityFloor,
			ProbabilityCeiling:   d.ProbabilityCeiling,
			SignalThreshold:      d.SignalThreshold,
			Quotes: models.QuoteBounds{
				MinProbability: d.QuoteMinProbability,
				MaxProbability: d.QuoteMaxProbability,
				MaxAge:         cfg.QuoteMaxAge(),
			},
		},
		Overrides: overrides,
		Workers:   cfg.Scanner.Workers,
	}
}

// FeatureOptions maps the features section onto engineer options
func FeatureOptions(cfg config.FeaturesConfig) features.Options {
	fams := make([]features.Family, len(cfg.Families))
	for i, f := range cfg.Families {
		fams[i] = features.Family(f)
	}
	return features.Options{
		RollingWindow:     cfg.RollingWindow,
		RollingMinPeriods: cfg.RollingMinPeriods,
		FormShort:         cfg.FormShort,
		FormLong:          cfg.FormLong,
		H2HWindow:         cfg.H2HWindow,
		DaysRestDefault:   cfg.DaysRestDefault,
		DaysRestCap:       cfg.DaysRestCap,
		LongRoadTripMiles: cfg.LongRoadTripMiles,
		Families:          fams,
	}
}

// TrainConfigs maps the models section onto the two training runs. Search
// settings apply to both; the default parameters differ per objective.
func TrainConfigs(cfg config.ModelsConfig) (outcome, margin ml.TrainConfig) {
	outcome = ml.DefaultOutcomeTrainConfig()
	margin = ml.DefaultMarginTrainConfig()
	for _, tc := range []*ml.TrainConfig{&outcome, &margin} {
		tc.Search.Enabled = cfg.SearchEnabled
		if cfg.SearchIterations > 0 {
			tc.Search.Iterations = cfg.SearchIterations
		}
		if cfg.SearchWorkers > 0 {
			tc.Search.Workers = cfg.SearchWorkers
		}
		tc.Folds = cfg.Folds
		tc.TestSize = cfg.TestSize
		tc.Seed = cfg.Seed
	}
	return outcome, margin
}

// HistoryWindow returns the first day of history to load for a scan on now:
// the start of the current season and of the seasons-1 before it.
func HistoryWindow(cfg config.HistoryConfig, now time.Time) time.Time {
	seasons := cfg.Seasons
	if seasons < 1 {
		seasons = 1
	}
	return history.SeasonStart(now).AddDate(-(seasons - 1), 0, 0)
}

// ScannerSettings maps the scanner and feature sections onto scanner settings
func ScannerSettings(cfg *config.Config) ScannerConfig {
	return ScannerConfig{
		Decision:     DecisionConfig(cfg),
		Features:     FeatureOptions(cfg.Features),
		CacheTTL:     cfg.FeatureCacheTTL(),
		BatchTimeout: cfg.BatchTimeout(),
		Refresh:      time.Duration(cfg.History.RefreshHours) * time.Hour,
		TopPicks:     cfg.Scanner.TopPicks,
	}
}

// TrainerSettings maps the features and models sections onto a training job
func TrainerSettings(cfg *config.Config) TrainerConfig {
	outcome, margin := TrainConfigs(cfg.Models)
	return TrainerConfig{
		Features:    FeatureOptions(cfg.Features),
		MinHistory:  cfg.Models.MinHistory,
		Outcome:     outcome,
		Margin:      margin,
		OutcomePath: cfg.Models.OutcomePath,
		MarginPath:  cfg.Models.MarginPath,
	}
}
