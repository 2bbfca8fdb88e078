package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// BootstrapResult is the resampled distribution of a flat-bet ROI
type BootstrapResult struct {
	Iterations          int                   `json:"iterations"`
	MeanROI             float64               `json:"mean_roi"`
	StdROI              float64               `json:"std_roi"`
	ProbabilityOfProfit float64               `json:"probability_of_profit"`
	ConfidenceIntervals map[string][2]float64 `json:"confidence_intervals"`
}

// Bootstrap resamples bet results with replacement to estimate how much of a
// simulated ROI is luck. outcomes holds one entry per bet.
func Bootstrap(ctx context.Context, outcomes []bool, payout, stake float64, iterations int, seed int64) (BootstrapResult, error) {
	if len(outcomes) == 0 {
		return BootstrapResult{}, fmt.Errorf("no bets to resample")
	}
	if iterations <= 0 {
		iterations = 1000
	}
	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, iterations)
	staked := stake * float64(len(outcomes))

	for i := 0; i < iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return BootstrapResult{}, err
			}
		}
		profit := 0.0
		for range outcomes {
			if outcomes[rng.Intn(len(outcomes))] {
				profit += payout
			} else {
				profit -= stake
			}
		}
		distribution[i] = profit / staked
	}

	mean, std := meanStd(distribution)
	return BootstrapResult{
		Iterations:          iterations,
		MeanROI:             mean,
		StdROI:              std,
		ProbabilityOfProfit: probabilityAbove(distribution, 0),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95}),
	}, nil
}

// CalculateConfidenceIntervals returns the central interval of distribution
// for each level, keyed like "95%"
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string][2]float64 {
	results := make(map[string][2]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		results[formatPercent(level)] = [2]float64{percentile(distribution, p), percentile(distribution, 1.0-p)}
	}
	return results
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	valuesCopy := append([]float64{}, values...)
	sort.Float64s(valuesCopy)
	idx := int(math.Floor(p * float64(len(valuesCopy)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(valuesCopy) {
		idx = len(valuesCopy) - 1
	}
	return valuesCopy[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
