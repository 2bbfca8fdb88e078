// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/courtside/internal/backtest"
	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/service"
)

var (
	configFile  string
	historyFile string
	outputDir   string
	walkForward bool
	bootstrapN  int
	testSize    float64
	appLog      *logrus.Logger
	cfg         *config.Config
	deps        *service.Dependencies
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&historyFile, "history", "", "Evaluate on this CSV export instead of the configured history source")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for JSON and CSV reports")
	rootCmd.Flags().BoolVar(&walkForward, "walk-forward", false, "Also retrain and evaluate month by month")
	rootCmd.Flags().IntVar(&bootstrapN, "bootstrap", -1, "Bootstrap iterations for ROI intervals (0 disables)")
	rootCmd.Flags().Float64Var(&testSize, "test-size", 0, "Share of the most recent games held out")
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Evaluate the outcome model on held-out games",
	Long:  `Train on the earlier games, then report accuracy by confidence, flat-bet returns and monthly accuracy on the later ones.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = service.LoadConfig(cmd.Context(), configFile)
		if err != nil {
			return err
		}
		appLog = logger.NewLoggerWithFormat(cfg.App.LogLevel, cfg.App.LogFormat)
		metrics.InitRegistry()

		deps, err = service.Setup(cmd.Context(), cfg, appLog)
		if err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer deps.Close()
		return run(cmd.Context())
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildBacktestConfig() (backtest.Config, error) {
	btCfg := cfg.Backtest
	if walkForward {
		btCfg.WalkForward = true
	}
	if bootstrapN >= 0 {
		btCfg.Bootstrap = bootstrapN
	}
	if testSize > 0 {
		btCfg.TestSize = testSize
	}
	if outputDir != "" {
		btCfg.OutputPath = outputDir
	}
	return backtest.FromConfig(&btCfg, cfg.Models.Seed)
}

func run(ctx context.Context) error {
	btConfig, err := buildBacktestConfig()
	if err != nil {
		return fmt.Errorf("invalid backtest configuration: %w", err)
	}

	history, err := deps.History(historyFile)
	if err != nil {
		return fmt.Errorf("failed to create history source: %w", err)
	}

	settings := service.TrainerSettings(cfg)
	ds, err := service.NewTrainer(settings, history, deps.Catalog, appLog).Dataset(ctx)
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(btConfig, settings.Outcome, appLog)
	if err != nil {
		return err
	}

	appLog.WithFields(logrus.Fields{
		"history":      history.Name(),
		"rows":         len(ds.Rows),
		"test_size":    btConfig.TestSize,
		"walk_forward": btConfig.WalkForward,
		"bootstrap":    btConfig.BootstrapIterations,
	}).Info("Starting backtest")

	result, err := engine.Run(ctx, ds)
	if err != nil {
		return err
	}

	fmt.Print(backtest.GenerateConsoleReport(result))

	if btConfig.OutputPath != "" {
		if err := backtest.WriteReports(result, btConfig.OutputPath); err != nil {
			return fmt.Errorf("failed to write reports: %w", err)
		}
		appLog.WithField("output", btConfig.OutputPath).Info("Backtest reports written")
	}
	return nil
}
