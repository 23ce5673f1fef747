package ml

import (
	"errors"
	"fmt"
)

var (
	ErrFeatureWidth = errors.New("feature vector width mismatch")
	ErrNotFitted    = errors.New("artifact has no fitted parameters")
)

// Scaler is a fitted, stateless transform applied to one row before inference.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
	NumFeatures() int
}

// Classifier is a fitted binary model. Predict returns the 0/1 label and the
// model's confidence in the positive class.
type Classifier interface {
	Predict(features []float64) (int, float64, error)
	NumFeatures() int
}

type WidthError struct {
	Got  int
	Want int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrFeatureWidth, e.Got, e.Want)
}

func (e *WidthError) Unwrap() error {
	return ErrFeatureWidth
}

func checkWidth(got, want int) error {
	if got != want {
		return &WidthError{Got: got, Want: want}
	}
	return nil
}
