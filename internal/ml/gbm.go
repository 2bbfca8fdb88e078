package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const maxBins = 64

// Params are the boosting hyperparameters
type Params struct {
	NEstimators     int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"`
	LearningRate    float64 `json:"learning_rate"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
	MinChildWeight  float64 `json:"min_child_weight"`
	Gamma           float64 `json:"gamma"`
	Lambda          float64 `json:"lambda"`
	ScalePosWeight  float64 `json:"scale_pos_weight,omitempty"`
	Seed            int64   `json:"seed"`
}

// DefaultClassifierParams are used when search is disabled
func DefaultClassifierParams() Params {
	return Params{
		NEstimators:     200,
		MaxDepth:        5,
		LearningRate:    0.05,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		MinChildWeight:  3,
		Gamma:           0.1,
		Lambda:          1,
		Seed:            42,
	}
}

// DefaultRegressorParams are used when search is disabled
func DefaultRegressorParams() Params {
	return Params{
		NEstimators:     100,
		MaxDepth:        5,
		LearningRate:    0.1,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		MinChildWeight:  1,
		Gamma:           0,
		Lambda:          1,
		Seed:            42,
	}
}

func (p Params) validate() error {
	switch {
	case p.NEstimators < 1:
		return fmt.Errorf("n_estimators must be positive, got %d", p.NEstimators)
	case p.MaxDepth < 1:
		return fmt.Errorf("max_depth must be positive, got %d", p.MaxDepth)
	case p.LearningRate <= 0 || p.LearningRate > 1:
		return fmt.Errorf("learning_rate must be in (0, 1], got %g", p.LearningRate)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("subsample must be in (0, 1], got %g", p.Subsample)
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return fmt.Errorf("colsample_bytree must be in (0, 1], got %g", p.ColsampleByTree)
	case p.MinChildWeight < 0 || p.Gamma < 0 || p.Lambda < 0:
		return fmt.Errorf("min_child_weight, gamma and lambda must be non-negative")
	}
	return nil
}

// Node is one tree node. Leaves carry Value; splits send x[Feature] <= Threshold left.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// Tree is a flat node list rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Ensemble is a fitted additive tree model. Leaf values already include shrinkage.
type Ensemble struct {
	Objective string    `json:"objective"`
	BaseScore float64   `json:"base_score"`
	Trees     []Tree    `json:"trees"`
	Gain      []float64 `json:"gain"`
}

// Raw returns the untransformed margin for x
func (e *Ensemble) Raw(x []float64) float64 {
	sum := e.BaseScore
	for _, t := range e.Trees {
		sum += t.predict(x)
	}
	return sum
}

// Predict returns the objective-transformed prediction for x
func (e *Ensemble) Predict(x []float64) float64 {
	raw := e.Raw(x)
	if e.Objective == objectiveLogistic {
		return sigmoid(raw)
	}
	return raw
}

func (e *Ensemble) check(nFeatures int) error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	if e.Objective != objectiveLogistic && e.Objective != objectiveSquared {
		return fmt.Errorf("unknown objective %q", e.Objective)
	}
	for ti, t := range e.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= nFeatures {
				return fmt.Errorf("tree %d node %d references feature %d of %d", ti, ni, n.Feature, nFeatures)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}

// binner maps raw feature values to at most maxBins+1 ordered bins per feature
type binner struct {
	cuts [][]float64
	bins [][]uint8
}

func newBinner(X [][]float64, nFeatures int) *binner {
	b := &binner{cuts: make([][]float64, nFeatures), bins: make([][]uint8, nFeatures)}
	col := make([]float64, len(X))
	for f := 0; f < nFeatures; f++ {
		for i, row := range X {
			col[i] = row[f]
		}
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		b.cuts[f] = quantileCuts(sorted)

		bins := make([]uint8, len(X))
		for i, v := range col {
			bins[i] = uint8(sort.SearchFloat64s(b.cuts[f], v))
		}
		b.bins[f] = bins
	}
	return b
}

func quantileCuts(sorted []float64) []float64 {
	var uniq []float64
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) <= maxBins {
		return uniq
	}
	cuts := make([]float64, 0, maxBins)
	n := len(sorted)
	for i := 1; i <= maxBins; i++ {
		v := sorted[i*n/maxBins-1]
		if len(cuts) == 0 || v > cuts[len(cuts)-1] {
			cuts = append(cuts, v)
		}
	}
	return cuts
}

type treeBuilder struct {
	params Params
	bins   *binner
	grad   []float64
	hess   []float64
	cols   []int
	gain   []float64
	nodes  []Node
}

func (tb *treeBuilder) grow(rows []int, depth int) int {
	idx := len(tb.nodes)
	tb.nodes = append(tb.nodes, Node{})

	var G, H float64
	for _, r := range rows {
		G += tb.grad[r]
		H += tb.hess[r]
	}
	lambda := tb.params.Lambda

	bestGain := 0.0
	bestFeature, bestBin := -1, 0
	if depth < tb.params.MaxDepth && len(rows) > 1 {
		parentScore := G * G / (H + lambda)
		var gh [maxBins + 1][2]float64
		for _, f := range tb.cols {
			nCuts := len(tb.bins.cuts[f])
			if nCuts < 2 {
				continue
			}
			for k := range gh {
				gh[k] = [2]float64{}
			}
			fb := tb.bins.bins[f]
			for _, r := range rows {
				gh[fb[r]][0] += tb.grad[r]
				gh[fb[r]][1] += tb.hess[r]
			}
			// training values never sort past the last cut, so k = nCuts-2 already
			// isolates the top bin and k = nCuts-1 would leave the right child empty
			var GL, HL float64
			for k := 0; k < nCuts-1; k++ {
				GL += gh[k][0]
				HL += gh[k][1]
				GR, HR := G-GL, H-HL
				if HL < tb.params.MinChildWeight || HR < tb.params.MinChildWeight || HL <= 0 || HR <= 0 {
					continue
				}
				gain := 0.5*(GL*GL/(HL+lambda)+GR*GR/(HR+lambda)-parentScore) - tb.params.Gamma
				if gain > bestGain {
					bestGain, bestFeature, bestBin = gain, f, k
				}
			}
		}
	}

	if bestFeature < 0 {
		tb.nodes[idx] = Node{Leaf: true, Value: -G / (H + lambda) * tb.params.LearningRate}
		return idx
	}

	fb := tb.bins.bins[bestFeature]
	var left, right []int
	for _, r := range rows {
		if int(fb[r]) <= bestBin {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	tb.gain[bestFeature] += bestGain

	l := tb.grow(left, depth+1)
	r := tb.grow(right, depth+1)
	tb.nodes[idx] = Node{
		Feature:   bestFeature,
		Threshold: tb.bins.cuts[bestFeature][bestBin],
		Left:      l,
		Right:     r,
	}
	return idx
}

// fitEnsemble runs gradient boosting with second-order leaf weights
func fitEnsemble(X [][]float64, y []float64, params Params, obj objective) (*Ensemble, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("need matching non-empty X and y, got %d and %d rows", n, len(y))
	}
	nFeatures := len(X[0])
	if nFeatures == 0 {
		return nil, fmt.Errorf("no features")
	}

	rng := rand.New(rand.NewSource(params.Seed))
	weights := obj.weights(y, params)
	bins := newBinner(X, nFeatures)

	ens := &Ensemble{
		Objective: obj.name(),
		BaseScore: obj.baseScore(y, weights),
		Gain:      make([]float64, nFeatures),
	}
	preds := make([]float64, n)
	for i := range preds {
		preds[i] = ens.BaseScore
	}
	grad := make([]float64, n)
	hess := make([]float64, n)

	nRows := int(math.Max(1, math.Round(params.Subsample*float64(n))))
	nCols := int(math.Max(1, math.Round(params.ColsampleByTree*float64(nFeatures))))
	allRows := make([]int, n)
	for i := range allRows {
		allRows[i] = i
	}

	for t := 0; t < params.NEstimators; t++ {
		obj.gradients(y, preds, weights, grad, hess)

		rows := allRows
		if nRows < n {
			rows = rng.Perm(n)[:nRows]
			sort.Ints(rows)
		}
		cols := rng.Perm(nFeatures)[:nCols]
		sort.Ints(cols)

		tb := &treeBuilder{params: params, bins: bins, grad: grad, hess: hess, cols: cols, gain: ens.Gain}
		tb.grow(rows, 0)
		tree := Tree{Nodes: tb.nodes}
		ens.Trees = append(ens.Trees, tree)

		for i, row := range X {
			preds[i] += tree.predict(row)
		}
	}
	return ens, nil
}
