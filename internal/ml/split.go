package ml

import (
	"math"
	"math/rand"
	"sort"
)

// trainTestSplit returns shuffled train and test row indices. With stratify the
// class balance of y is preserved in both parts.
func trainTestSplit(y []float64, testSize float64, stratify bool, rng *rand.Rand) (train, test []int) {
	groups := [][]int{indices(len(y))}
	if stratify {
		groups = classGroups(y)
	}
	for _, g := range groups {
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		nTest := int(math.Round(testSize * float64(len(g))))
		test = append(test, g[:nTest]...)
		train = append(train, g[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// kFold partitions n shuffled rows into k test folds
func kFold(n, k int, rng *rand.Rand) [][]int {
	idx := indices(n)
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	folds := make([][]int, k)
	for i, r := range idx {
		folds[i%k] = append(folds[i%k], r)
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

// stratifiedKFold deals each class round-robin across k test folds
func stratifiedKFold(y []float64, k int, rng *rand.Rand) [][]int {
	folds := make([][]int, k)
	next := 0
	for _, g := range classGroups(y) {
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		for _, r := range g {
			folds[next%k] = append(folds[next%k], r)
			next++
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

// complement returns the rows in [0, n) not in fold, which must be sorted
func complement(n int, fold []int) []int {
	out := make([]int, 0, n-len(fold))
	j := 0
	for i := 0; i < n; i++ {
		if j < len(fold) && fold[j] == i {
			j++
			continue
		}
		out = append(out, i)
	}
	return out
}

func classGroups(y []float64) [][]int {
	var neg, pos []int
	for i, v := range y {
		if v > 0.5 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	return [][]int{neg, pos}
}

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func subsetRows(X [][]float64, rows []int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = X[r]
	}
	return out
}

func subsetValues(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
