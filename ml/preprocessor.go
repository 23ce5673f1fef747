package ml

import (
	"errors"
	"fmt"
)

// StandardScaler applies (x - mean) / scale per column.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) NumFeatures() int {
	return len(s.Mean)
}

func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if err := checkWidth(len(features), len(s.Mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(features))
	for i, v := range features {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 {
		return ErrNotFitted
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("standard scaler: mean has %d values, scale has %d", len(s.Mean), len(s.Scale))
	}
	return nil
}

// MinMaxScaler maps each column from [Min, Max] onto [0, 1].
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

func (s *MinMaxScaler) NumFeatures() int {
	return len(s.Min)
}

func (s *MinMaxScaler) Transform(features []float64) ([]float64, error) {
	if err := checkWidth(len(features), len(s.Min)); err != nil {
		return nil, err
	}
	return NormalizeVector(features, s.Min, s.Max)
}

func (s *MinMaxScaler) validate() error {
	if len(s.Min) == 0 {
		return ErrNotFitted
	}
	if len(s.Min) != len(s.Max) {
		return fmt.Errorf("minmax scaler: min has %d values, max has %d", len(s.Min), len(s.Max))
	}
	return nil
}

// NormalizeVector scales each value into [0, 1] using the matching bounds.
// A constant column has its range treated as 1, so it maps to v - min.
func NormalizeVector(vector, mins, maxs []float64) ([]float64, error) {
	if len(vector) != len(mins) || len(vector) != len(maxs) {
		return nil, errors.New("vector and bounds size mismatch")
	}
	out := make([]float64, len(vector))
	for i, v := range vector {
		span := maxs[i] - mins[i]
		if span == 0 {
			span = 1
		}
		out[i] = (v - mins[i]) / span
	}
	return out, nil
}
