package ml

import (
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model. The label is 1 only
// when the probability is strictly above Threshold (0.5 when unset).
type LogisticRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Threshold float64   `json:"threshold"`
}

func (m *LogisticRegression) NumFeatures() int {
	return len(m.Coef)
}

func (m *LogisticRegression) Predict(features []float64) (int, float64, error) {
	if err := checkWidth(len(features), len(m.Coef)); err != nil {
		return 0, 0, err
	}
	p := sigmoid(dot(m.Coef, features) + m.Intercept)
	threshold := m.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	if p > threshold {
		return 1, p, nil
	}
	return 0, p, nil
}

func (m *LogisticRegression) validate() error {
	if len(m.Coef) == 0 {
		return ErrNotFitted
	}
	return checkFinite("logistic_regression coef", m.Coef)
}

// LinearSVC predicts 1 when the decision function is positive. Confidence is
// the decision value squashed through a sigmoid, so it is monotone in the margin
// but not a calibrated probability.
type LinearSVC struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (m *LinearSVC) NumFeatures() int {
	return len(m.Coef)
}

func (m *LinearSVC) Predict(features []float64) (int, float64, error) {
	if err := checkWidth(len(features), len(m.Coef)); err != nil {
		return 0, 0, err
	}
	decision := dot(m.Coef, features) + m.Intercept
	if decision > 0 {
		return 1, sigmoid(decision), nil
	}
	return 0, sigmoid(decision), nil
}

func (m *LinearSVC) validate() error {
	if len(m.Coef) == 0 {
		return ErrNotFitted
	}
	return checkFinite("linear_svc coef", m.Coef)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func checkFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d] is not finite", name, i)
		}
	}
	return nil
}
