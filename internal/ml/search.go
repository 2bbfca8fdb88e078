package ml

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// SearchSpace lists the values random search draws from
type SearchSpace struct {
	NEstimators     []int     `mapstructure:"n_estimators"`
	MaxDepth        []int     `mapstructure:"max_depth"`
	LearningRate    []float64 `mapstructure:"learning_rate"`
	Subsample       []float64 `mapstructure:"subsample"`
	ColsampleByTree []float64 `mapstructure:"colsample_bytree"`
	MinChildWeight  []float64 `mapstructure:"min_child_weight"`
	Gamma           []float64 `mapstructure:"gamma"`
}

// DefaultSearchSpace covers depth, learning rate, row and column sampling,
// minimum leaf weight and the split penalty
func DefaultSearchSpace() SearchSpace {
	return SearchSpace{
		NEstimators:     []int{100, 200, 300},
		MaxDepth:        []int{3, 4, 5, 6},
		LearningRate:    []float64{0.01, 0.05, 0.1, 0.15},
		Subsample:       []float64{0.7, 0.8, 0.9},
		ColsampleByTree: []float64{0.7, 0.8, 0.9},
		MinChildWeight:  []float64{1, 3, 5},
		Gamma:           []float64{0, 0.1, 0.2},
	}
}

// SearchConfig controls random hyperparameter search
type SearchConfig struct {
	Enabled    bool
	Iterations int
	Workers    int
	Space      SearchSpace
}

// Candidate is one evaluated configuration
type Candidate struct {
	Params Params  `json:"params"`
	Score  float64 `json:"score"`
}

func (s SearchSpace) sample(base Params, rng *rand.Rand) Params {
	p := base
	if len(s.NEstimators) > 0 {
		p.NEstimators = s.NEstimators[rng.Intn(len(s.NEstimators))]
	}
	if len(s.MaxDepth) > 0 {
		p.MaxDepth = s.MaxDepth[rng.Intn(len(s.MaxDepth))]
	}
	if len(s.LearningRate) > 0 {
		p.LearningRate = s.LearningRate[rng.Intn(len(s.LearningRate))]
	}
	if len(s.Subsample) > 0 {
		p.Subsample = s.Subsample[rng.Intn(len(s.Subsample))]
	}
	if len(s.ColsampleByTree) > 0 {
		p.ColsampleByTree = s.ColsampleByTree[rng.Intn(len(s.ColsampleByTree))]
	}
	if len(s.MinChildWeight) > 0 {
		p.MinChildWeight = s.MinChildWeight[rng.Intn(len(s.MinChildWeight))]
	}
	if len(s.Gamma) > 0 {
		p.Gamma = s.Gamma[rng.Intn(len(s.Gamma))]
	}
	return p
}

// randomSearch draws cfg.Iterations candidates up front and scores them in
// parallel. The highest score wins; ties go to the earlier draw.
func randomSearch(ctx context.Context, base Params, cfg SearchConfig, rng *rand.Rand, score func(context.Context, Params) (float64, error)) (Candidate, []Candidate, error) {
	if cfg.Iterations < 1 {
		return Candidate{}, nil, fmt.Errorf("search needs at least one iteration")
	}
	candidates := make([]Candidate, cfg.Iterations)
	for i := range candidates {
		candidates[i].Params = cfg.Space.sample(base, rng)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := score(gctx, candidates[i].Params)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			candidates[i].Score = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Candidate{}, nil, err
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, candidates, nil
}

// foldResult holds the held-out labels and predictions of one fold
type foldResult struct {
	y    []float64
	pred []float64
}

// crossValidate fits on each fold's complement and predicts the held-out fold
func crossValidate(ctx context.Context, X [][]float64, y []float64, folds [][]int, params Params, obj objective) ([]foldResult, error) {
	results := make([]foldResult, 0, len(folds))
	for _, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		train := complement(len(X), fold)
		ens, err := fitEnsemble(subsetRows(X, train), subsetValues(y, train), params, obj)
		if err != nil {
			return nil, err
		}
		testX := subsetRows(X, fold)
		pred := make([]float64, len(testX))
		for i, row := range testX {
			pred[i] = ens.Predict(row)
		}
		results = append(results, foldResult{y: subsetValues(y, fold), pred: pred})
	}
	return results, nil
}

// foldScores applies metric to every fold
func foldScores(results []foldResult, metric func(y, pred []float64) float64) []float64 {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = metric(r.y, r.pred)
	}
	return scores
}
