// Package main provides the entry point for the scan service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/decision"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/market"
	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/scheduler"
	"github.com/yourusername/courtside/internal/server"
	"github.com/yourusername/courtside/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	scanDate   string
	jsonOutput bool
	quotesFile string
	appLog     *logrus.Logger
	cfg        *config.Config
	deps       *service.Dependencies
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	scanCmd.Flags().StringVarP(&scanDate, "date", "d", "", "Slate date (YYYY-MM-DD), defaults to today")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	importCmd.Flags().StringVarP(&quotesFile, "file", "f", "", "Book file (JSON array of dated slates)")
	_ = importCmd.MarkFlagRequired("file")
}

var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Scan NBA slates for betting edges",
	Long:  `Fuse model win probabilities and projected margins with market prices to find moneyline and spread edges.`,
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
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps != nil {
			deps.Close()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scheduled scans and serve the analyze API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(cmd.Context())
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan one slate and print the ranked report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanOnce(cmd.Context())
	},
}

var importCmd = &cobra.Command{
	Use:   "import-quotes",
	Short: "Publish a book file's schedule and odds to redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		return importQuotes(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(runCmd, scanCmd, importCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newScanner(ctx context.Context) (*service.Scanner, error) {
	history, err := deps.History("")
	if err != nil {
		return nil, fmt.Errorf("failed to create history source: %w", err)
	}
	quotes, err := deps.Quotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create market source: %w", err)
	}
	outcome, margin, err := service.LoadModels(cfg.Models.OutcomePath, cfg.Models.MarginPath, appLog)
	if err != nil {
		return nil, err
	}
	return service.NewScanner(
		service.ScannerSettings(cfg),
		history,
		quotes,
		deps.Catalog,
		outcome,
		margin,
		deps.Recommendations(),
		appLog,
	)
}

func runService(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"commit":      GitCommit,
		"history":     cfg.History.Source,
		"schedule":    cfg.Scanner.Schedule,
	}).Info("Courtside scanner starting")

	scanner, err := newScanner(ctx)
	if err != nil {
		return err
	}

	// a failed first build leaves the API not ready until the next refresh
	if err := scanner.Refresh(ctx); err != nil {
		appLog.WithError(err).Error("Initial history snapshot failed")
	}

	sched := scheduler.NewScheduler(scanner, appLog)
	if err := sched.ScheduleScan(cfg.Scanner.Schedule, cfg.BatchTimeout()+time.Minute); err != nil {
		return err
	}
	if cfg.History.RefreshHours > 0 {
		if err := sched.ScheduleRefresh(time.Duration(cfg.History.RefreshHours) * time.Hour); err != nil {
			return err
		}
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Error stopping scheduler")
		}
	}()

	if cfg.Server.Enabled {
		var pinger server.DatabasePinger
		if deps.DB != nil {
			pinger = deps.DB
		}
		api := server.NewServer(server.Config{
			ServiceName:  cfg.App.Name,
			Version:      Version,
			Address:      cfg.Server.Address,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
			Devig:        cfg.Redis.Devig,
			Logger:       appLog,
			DB:           pinger,
		}, scanner)
		if err := api.Start(ctx); err != nil {
			return err
		}
	} else if cfg.Metrics.Enabled {
		startMetricsServer(ctx)
	}

	appLog.WithField("next_run", sched.GetNextRun()).Info("Scanner is running")

	// SIGHUP reloads the model artifacts; the others shut down
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
wait:
	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				reloadModels(scanner)
				continue
			}
			appLog.WithField("signal", sig).Info("Shutdown signal received")
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	cancel()
	appLog.Info("Courtside scanner shut down")
	return nil
}

// reloadModels reads fresh artifacts into new models and swaps them in whole.
// Any failure keeps the current models serving.
func reloadModels(scanner *service.Scanner) {
	outcome, margin, err := service.LoadModels(cfg.Models.OutcomePath, cfg.Models.MarginPath, appLog)
	if err != nil {
		appLog.WithError(err).Error("Model reload failed, keeping current models")
		return
	}
	if err := scanner.SwapModels(outcome, margin); err != nil {
		appLog.WithError(err).Error("Model swap rejected, keeping current models")
	}
}

// startMetricsServer exposes /metrics on its own port when the API is disabled
func startMetricsServer(ctx context.Context) {
	mux := http.NewServeMux()
	path := cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, metrics.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLog.WithField("address", srv.Addr).Info("Metrics server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func scanOnce(ctx context.Context) error {
	date := models.NormalizeDate(time.Now().UTC())
	if scanDate != "" {
		d, err := models.ParseDate(scanDate)
		if err != nil {
			return err
		}
		date = d
	}

	scanner, err := newScanner(ctx)
	if err != nil {
		return err
	}
	report, err := scanner.Scan(ctx, date)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report, cfg.Scanner.TopPicks)
	return nil
}

func importQuotes(ctx context.Context) error {
	if !cfg.Redis.Enabled {
		return fmt.Errorf("import-quotes requires redis.enabled")
	}
	days, err := market.ReadBookFile(quotesFile)
	if err != nil {
		return err
	}
	client, err := market.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Password)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := market.NewRedisSource(client, cfg.Redis.Prefix, cfg.Redis.Devig).Import(ctx, days)
	if err != nil {
		return err
	}
	appLog.WithFields(logrus.Fields{
		"file":     quotesFile,
		"days":     len(days),
		"matchups": n,
	}).Info("Quotes imported")
	return nil
}

func printReport(report *decision.Report, topN int) {
	fmt.Printf("Slate %s (policy %s): %d signals, %d no signal, %d failed\n\n",
		report.Date.Format(models.DateLayout), report.PolicyVer, report.Signals, report.NoSignals, report.Failures)

	for _, o := range report.Ranked() {
		rec := o.Recommendation
		switch o.Status {
		case decision.StatusFailed:
			fmt.Printf("  %-12s FAILED  %s\n", rec.Matchup.Label(), o.ErrorMessage())
		case decision.StatusSignal:
			fmt.Printf("  %-12s %-11s edge %+5.1f%% %-6s %s\n", rec.Matchup.Label(), rec.Side, rec.Edge*100, rec.Confidence, rec.Rationale)
		default:
			fmt.Printf("  %-12s no bet  %s\n", rec.Matchup.Label(), rec.Rationale)
		}
	}

	picks := report.TopPicks(topN)
	if len(picks) == 0 {
		fmt.Println("\nNo picks today")
		return
	}
	fmt.Println("\nTop picks:")
	for i, rec := range picks {
		fmt.Printf("  %d. %s %s (%s, edge %+.1f%%)\n", i+1, rec.Matchup.Label(), rec.Side, rec.Confidence, rec.Edge*100)
	}
}
