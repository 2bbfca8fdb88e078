package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats a result for terminal output
func GenerateConsoleReport(result *Result) string {
	var builder strings.Builder
	s := result.Summary
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Hold-out from: %s (%d train / %d test rows)\n",
		result.Cutoff.Format("2006-01-02"), result.TrainRows, result.TestRows))
	builder.WriteString(fmt.Sprintf("Overall Accuracy: %.1f%%\n", s.Accuracy*100))
	builder.WriteString(fmt.Sprintf("AUC: %.3f\n", s.AUC))

	builder.WriteString("\nAccuracy by Confidence Level:\n")
	for _, t := range s.ByThreshold {
		if t.Games == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("  %.0f%%+ confidence: %.1f%% accuracy (%d games)\n", t.Threshold*100, t.Accuracy*100, t.Games))
	}

	builder.WriteString("\nBetting Simulation (flat stakes):\n")
	for _, b := range s.Bets {
		if b.Bets == 0 {
			builder.WriteString(fmt.Sprintf("  Threshold %.0f%%: no bets\n", b.Threshold*100))
			continue
		}
		builder.WriteString(fmt.Sprintf("  Threshold %.0f%%: %d bets, %dW-%dL (%.1f%%), profit $%+.0f, ROI %+.1f%%, max drawdown $%.0f\n",
			b.Threshold*100, b.Bets, b.Wins, b.Losses, b.WinRate*100, b.Profit, b.ROI*100, b.MaxDrawdown))
		if b.Bootstrap != nil {
			ci := b.Bootstrap.ConfidenceIntervals["90%"]
			builder.WriteString(fmt.Sprintf("    bootstrap: P(profit) %.0f%%, 90%% ROI interval [%+.1f%%, %+.1f%%]\n",
				b.Bootstrap.ProbabilityOfProfit*100, ci[0]*100, ci[1]*100))
		}
	}

	builder.WriteString("\nMonthly Performance:\n")
	for _, m := range s.Monthly {
		builder.WriteString(fmt.Sprintf("  %s: %.1f%% accuracy (%d games)\n", m.Month, m.Accuracy*100, m.Games))
	}

	if wf := result.WalkForward; wf != nil {
		builder.WriteString("\nWalk-Forward:\n")
		for _, w := range wf.Windows {
			builder.WriteString(fmt.Sprintf("  %s: %.1f%% accuracy (%d games, trained on %d)\n", w.Month, w.TestAccuracy*100, w.TestRows, w.TrainRows))
		}
		builder.WriteString(fmt.Sprintf("  Consistency: %.0f%%  Overfit gap: %+.1f%%\n", wf.ConsistencyScore*100, wf.OverfitScore*100))
	}
	return builder.String()
}

// GenerateCSVExport exports key metrics for spreadsheets
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	s := result.Summary
	var b strings.Builder
	b.WriteString("metric,value\n")
	b.WriteString(fmt.Sprintf("accuracy,%.4f\n", s.Accuracy))
	b.WriteString(fmt.Sprintf("auc,%.4f\n", s.AUC))
	for _, t := range s.ByThreshold {
		b.WriteString(fmt.Sprintf("accuracy_%s,%.4f\n", ThresholdLabel(t.Threshold), t.Accuracy))
	}
	for _, bet := range s.Bets {
		b.WriteString(fmt.Sprintf("roi_%s,%.4f\n", ThresholdLabel(bet.Threshold), bet.ROI))
		b.WriteString(fmt.Sprintf("profit_%s,%.2f\n", ThresholdLabel(bet.Threshold), bet.Profit))
	}
	for _, m := range s.Monthly {
		b.WriteString(fmt.Sprintf("accuracy_%s,%.4f\n", m.Month, m.Accuracy))
	}
	return os.WriteFile(outputPath, []byte(b.String()), 0o644)
}

// ExportToJSON writes the full result
func ExportToJSON(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// WriteReports writes the JSON result, the CSV summary and one equity curve per
// bet threshold under dir
func WriteReports(result *Result, dir string) error {
	if err := ExportToJSON(result, filepath.Join(dir, "backtest.json")); err != nil {
		return err
	}
	if err := GenerateCSVExport(result, filepath.Join(dir, "backtest.csv")); err != nil {
		return err
	}
	for _, b := range result.Summary.Bets {
		name := fmt.Sprintf("equity_%s.csv", ThresholdLabel(b.Threshold))
		if err := os.WriteFile(filepath.Join(dir, name), []byte(b.Equity.ToCSV()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
