package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name  string
		y     []float64
		score []float64
		want  float64
	}{
		{"perfect", []float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}, 1},
		{"inverted", []float64{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}, 0},
		{"ties", []float64{0, 1}, []float64{0.5, 0.5}, 0.5},
		{"single class", []float64{1, 1}, []float64{0.2, 0.9}, 0.5},
		{"mixed", []float64{0, 1, 0, 1}, []float64{0.1, 0.4, 0.5, 0.8}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AUC(tt.y, tt.score), 1e-12)
		})
	}
}

func TestRegressionMetrics(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	pred := []float64{1, 2, 3, 6}
	assert.InDelta(t, 0.5, MAE(y, pred), 1e-12)
	assert.InDelta(t, 1.0, RMSE(y, pred), 1e-12)
	assert.InDelta(t, 1-4.0/5.0, R2(y, pred), 1e-12)
	assert.InDelta(t, 1.0, R2(y, y), 1e-12)
	assert.Equal(t, 0.75, Accuracy([]float64{1, 0, 1, 0}, []float64{0.6, 0.4, 0.5, 0.7}))
}

func TestStratifiedKFoldKeepsClassBalance(t *testing.T) {
	y := make([]float64, 100)
	for i := 0; i < 30; i++ {
		y[i] = 1
	}
	folds := stratifiedKFold(y, 5, rand.New(rand.NewSource(1)))
	seen := make(map[int]bool)
	for _, f := range folds {
		pos := 0
		for _, r := range f {
			assert.False(t, seen[r])
			seen[r] = true
			if y[r] == 1 {
				pos++
			}
		}
		assert.Len(t, f, 20)
		assert.Equal(t, 6, pos)
	}
	assert.Len(t, seen, 100)
}

func TestTrainTestSplit(t *testing.T) {
	y := make([]float64, 50)
	for i := 0; i < 10; i++ {
		y[i] = 1
	}
	train, test := trainTestSplit(y, 0.2, true, rand.New(rand.NewSource(1)))
	assert.Len(t, train, 40)
	assert.Len(t, test, 10)
	pos := 0
	for _, r := range test {
		if y[r] == 1 {
			pos++
		}
	}
	assert.Equal(t, 2, pos)
	assert.Equal(t, []int{0, 1, 2, 4}, complement(5, []int{3}))
}
