package ml

import "math"

const (
	objectiveLogistic = "binary:logistic"
	objectiveSquared  = "reg:squarederror"
)

type objective interface {
	name() string
	weights(y []float64, p Params) []float64
	baseScore(y, w []float64) float64
	gradients(y, preds, w, grad, hess []float64)
}

// logistic is binary log-loss; positives are weighted by ScalePosWeight
type logistic struct{}

func (logistic) name() string { return objectiveLogistic }

func (logistic) weights(y []float64, p Params) []float64 {
	spw := p.ScalePosWeight
	if spw <= 0 {
		spw = 1
	}
	w := make([]float64, len(y))
	for i, v := range y {
		w[i] = 1
		if v > 0.5 {
			w[i] = spw
		}
	}
	return w
}

func (logistic) baseScore(y, w []float64) float64 {
	var num, den float64
	for i, v := range y {
		num += v * w[i]
		den += w[i]
	}
	p := clamp(num/den, 1e-6, 1-1e-6)
	return math.Log(p / (1 - p))
}

func (logistic) gradients(y, preds, w, grad, hess []float64) {
	for i := range y {
		p := sigmoid(preds[i])
		grad[i] = (p - y[i]) * w[i]
		hess[i] = math.Max(p*(1-p), 1e-16) * w[i]
	}
}

// squared is least-squares regression
type squared struct{}

func (squared) name() string { return objectiveSquared }

func (squared) weights(y []float64, _ Params) []float64 {
	w := make([]float64, len(y))
	for i := range w {
		w[i] = 1
	}
	return w
}

func (squared) baseScore(y, _ []float64) float64 {
	return mean(y)
}

func (squared) gradients(y, preds, w, grad, hess []float64) {
	for i := range y {
		grad[i] = (preds[i] - y[i]) * w[i]
		hess[i] = w[i]
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
