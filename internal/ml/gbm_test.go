package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticClassification(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a, b, noise := rng.Float64(), rng.Float64(), rng.Float64()
		X[i] = []float64{a, b, noise}
		if a-b+0.1*(rng.Float64()-0.5) > 0 {
			y[i] = 1
		}
	}
	return X, y
}

func syntheticRegression(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a, b := rng.Float64(), rng.Float64()
		X[i] = []float64{a, b, rng.Float64()}
		y[i] = 20*(a-b) + rng.NormFloat64()
	}
	return X, y
}

func smallParams() Params {
	p := DefaultClassifierParams()
	p.NEstimators = 30
	p.MaxDepth = 3
	p.LearningRate = 0.3
	return p
}

func TestFitEnsembleClassifier(t *testing.T) {
	X, y := syntheticClassification(400, 1)
	ens, err := fitEnsemble(X, y, smallParams(), logistic{})
	require.NoError(t, err)

	prob := make([]float64, len(X))
	for i, row := range X {
		prob[i] = ens.Predict(row)
		assert.True(t, prob[i] > 0 && prob[i] < 1)
	}
	assert.Greater(t, AUC(y, prob), 0.9)
	assert.Greater(t, Accuracy(y, prob), 0.85)

	// the noise column should carry the least gain
	assert.Less(t, ens.Gain[2], ens.Gain[0])
	assert.Less(t, ens.Gain[2], ens.Gain[1])
	require.NoError(t, ens.check(3))
}

func TestFitEnsembleIsDeterministic(t *testing.T) {
	X, y := syntheticClassification(200, 2)
	a, err := fitEnsemble(X, y, smallParams(), logistic{})
	require.NoError(t, err)
	b, err := fitEnsemble(X, y, smallParams(), logistic{})
	require.NoError(t, err)
	for _, row := range X[:20] {
		assert.Equal(t, a.Raw(row), b.Raw(row))
	}
}

func TestFitEnsembleRegressor(t *testing.T) {
	X, y := syntheticRegression(400, 3)
	p := DefaultRegressorParams()
	p.NEstimators = 50
	ens, err := fitEnsemble(X, y, p, squared{})
	require.NoError(t, err)

	pred := make([]float64, len(X))
	for i, row := range X {
		pred[i] = ens.Predict(row)
	}
	assert.Greater(t, R2(y, pred), 0.8)
}

func TestFitEnsembleRejectsBadInput(t *testing.T) {
	_, err := fitEnsemble(nil, nil, smallParams(), logistic{})
	assert.Error(t, err)

	bad := smallParams()
	bad.Subsample = 0
	X, y := syntheticClassification(10, 1)
	_, err = fitEnsemble(X, y, bad, logistic{})
	assert.Error(t, err)
}

func TestScalePosWeightShiftsBaseScore(t *testing.T) {
	y := []float64{1, 0, 0, 0}
	w1 := logistic{}.weights(y, Params{ScalePosWeight: 1})
	w3 := logistic{}.weights(y, Params{ScalePosWeight: 3})
	assert.Less(t, logistic{}.baseScore(y, w1), 0.0)
	assert.InDelta(t, 0.0, logistic{}.baseScore(y, w3), 1e-9)
}

func TestTopBinCanBeSplitOff(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{name: "one bin per value", n: 10},
		{name: "quantile bins", n: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X := make([][]float64, tt.n)
			sorted := make([]float64, tt.n)
			for i := range X {
				X[i] = []float64{float64(i)}
				sorted[i] = float64(i)
			}
			cuts := quantileCuts(sorted)
			require.GreaterOrEqual(t, len(cuts), 2)
			top := cuts[len(cuts)-2]

			y := make([]float64, tt.n)
			for i := range y {
				if X[i][0] > top {
					y[i] = 10
				}
			}

			p := DefaultRegressorParams()
			p.NEstimators = 1
			p.MaxDepth = 1
			p.Subsample = 1
			p.ColsampleByTree = 1
			ens, err := fitEnsemble(X, y, p, squared{})
			require.NoError(t, err)

			root := ens.Trees[0].Nodes[0]
			require.False(t, root.Leaf)
			assert.Equal(t, top, root.Threshold)
			assert.Greater(t, ens.Raw([]float64{cuts[len(cuts)-1]}), ens.Raw([]float64{top}))
		})
	}
}
