// Package main provides the entry point for the model training job.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/service"
)

var (
	configFile  string
	historyFile string
	outcomePath string
	marginPath  string
	noMargin    bool
	noSearch    bool
	appLog      *logrus.Logger
	cfg         *config.Config
	deps        *service.Dependencies
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&historyFile, "history", "", "Train from this CSV export instead of the configured history source")
	rootCmd.Flags().StringVar(&outcomePath, "outcome-out", "", "Override the outcome artifact path")
	rootCmd.Flags().StringVar(&marginPath, "margin-out", "", "Override the margin artifact path")
	rootCmd.Flags().BoolVar(&noMargin, "no-margin", false, "Skip the margin model")
	rootCmd.Flags().BoolVar(&noSearch, "no-search", false, "Fit default hyperparameters without random search")
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the outcome and margin models",
	Long:  `Build a leak-free dataset from team history, fit the gradient-boosted outcome and margin models and publish their artifacts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = service.LoadConfig(cmd.Context(), configFile)
		if err != nil {
			return err
		}
		appLog = logger.NewLoggerWithFormat(cfg.App.LogLevel, cfg.App.LogFormat)

		deps, err = service.Setup(cmd.Context(), cfg, appLog)
		if err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer deps.Close()
		return train(cmd.Context())
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func train(ctx context.Context) error {
	history, err := deps.History(historyFile)
	if err != nil {
		return fmt.Errorf("failed to create history source: %w", err)
	}

	settings := service.TrainerSettings(cfg)
	if outcomePath != "" {
		settings.OutcomePath = outcomePath
	}
	if marginPath != "" {
		settings.MarginPath = marginPath
	}
	if noMargin {
		settings.MarginPath = ""
	}
	if noSearch {
		settings.Outcome.Search.Enabled = false
		settings.Margin.Search.Enabled = false
	}

	appLog.WithFields(logrus.Fields{
		"history":      history.Name(),
		"outcome_path": settings.OutcomePath,
		"margin_path":  settings.MarginPath,
	}).Info("Starting training job")

	report, err := service.NewTrainer(settings, history, deps.Catalog, appLog).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Training run %s\n", report.RunID)
	fmt.Printf("  Rows: %d  Features: %d  Duration: %s\n", report.Rows, report.Features, report.Duration.Round(time.Millisecond))
	if len(report.Dropped) > 0 {
		reasons := make([]string, 0, len(report.Dropped))
		for reason := range report.Dropped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  Dropped (%s): %d\n", reason, report.Dropped[reason])
		}
	}

	o := report.Outcome
	fmt.Println("\nOutcome model")
	fmt.Printf("  Hold-out accuracy: %.3f  AUC: %.3f\n", o.Accuracy, o.AUC)
	fmt.Printf("  CV accuracy: %.3f ± %.3f\n", o.CVAccuracyMean, o.CVAccuracyStd)
	fmt.Printf("  Saved to %s\n", settings.OutcomePath)

	if m := report.Margin; m != nil {
		fmt.Println("\nMargin model")
		fmt.Printf("  MAE: %.2f  RMSE: %.2f  R²: %.3f\n", m.MAE, m.RMSE, m.R2)
		fmt.Printf("  CV MAE: %.2f ± %.2f\n", m.CVMAEMean, m.CVMAEStd)
		fmt.Printf("  Saved to %s\n", settings.MarginPath)
	}
	return nil
}
