package features

import (
	"math"

	"github.com/yourusername/courtside/internal/models"
)

// Vector is an ordered, immutable mapping from feature name to value for one
// (team, date) pair. Values are never NaN.
type Vector struct {
	names  []string
	values []float64
	index  map[string]int
}

// NewVector builds a vector over names, taking values from values and filling any
// missing or non-finite entry with the feature's catalog default.
func NewVector(names []string, values map[string]float64) Vector {
	v := Vector{
		names:  make([]string, len(names)),
		values: make([]float64, len(names)),
		index:  make(map[string]int, len(names)),
	}
	copy(v.names, names)
	for i, name := range names {
		val, ok := values[name]
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
			def, _ := Lookup(name)
			val = def.Default
		}
		v.values[i] = val
		v.index[name] = i
	}
	return v
}

// Len is the number of features
func (v Vector) Len() int { return len(v.names) }

// Names returns the ordered feature names
func (v Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Values returns the values in name order
func (v Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Get returns a single feature value
func (v Vector) Get(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Map returns the vector as a name to value map
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.names))
	for i, name := range v.names {
		out[name] = v.values[i]
	}
	return out
}

// Select re-orders the vector to names. Extra features are dropped; a name the
// vector does not hold fails with a FeatureMismatchError.
func (v Vector) Select(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	var missing []string
	for i, name := range names {
		j, ok := v.index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[i] = v.values[j]
	}
	if len(missing) > 0 {
		return nil, &models.FeatureMismatchError{Missing: missing}
	}
	return out, nil
}

// With returns a copy of the vector with one value replaced
func (v Vector) With(name string, value float64) Vector {
	m := v.Map()
	m[name] = value
	return NewVector(v.names, m)
}
