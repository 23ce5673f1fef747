package ml

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeStandardScaler(t *testing.T) {
	scaler, err := DecodeScaler([]byte(`{"type":"standard","mean":[1,2],"scale":[2,0]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaler.NumFeatures() != 2 {
		t.Fatalf("expected 2 features, got %d", scaler.NumFeatures())
	}

	out, err := scaler.Transform([]float64{3, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A zero scale is treated as 1.
	if diff := cmp.Diff([]float64{1, 3}, out); diff != "" {
		t.Fatalf("transform mismatch (-want +got):\n%s", diff)
	}

	if _, err := scaler.Transform([]float64{1}); !errors.Is(err, ErrFeatureWidth) {
		t.Fatalf("expected ErrFeatureWidth, got %v", err)
	}
}

func TestDecodeMinMaxScaler(t *testing.T) {
	scaler, err := DecodeScaler([]byte(`{"type":"minmax","min":[0,5],"max":[10,5]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := scaler.Transform([]float64{5, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The constant second column keeps its offset from min.
	if diff := cmp.Diff([]float64{0.5, 2}, out); diff != "" {
		t.Fatalf("transform mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeScalerErrors(t *testing.T) {
	tests := map[string]string{
		"not json":      `pickle`,
		"missing type":  `{"mean":[1]}`,
		"unknown type":  `{"type":"robust"}`,
		"unfitted":      `{"type":"standard"}`,
		"size mismatch": `{"type":"standard","mean":[1,2],"scale":[1]}`,
	}
	for name, payload := range tests {
		if _, err := DecodeScaler([]byte(payload)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDecodeLogisticRegression(t *testing.T) {
	model, err := DecodeClassifier([]byte(`{"type":"logistic_regression","coef":[1,-1],"intercept":0}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.NumFeatures() != 2 {
		t.Fatalf("expected 2 features, got %d", model.NumFeatures())
	}

	label, p, err := model.Predict([]float64{2, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
	if want := 1 / (1 + math.Exp(-2)); math.Abs(p-want) > 1e-9 {
		t.Fatalf("expected probability %f, got %f", want, p)
	}

	label, _, err = model.Predict([]float64{0, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
}

func TestLogisticRegressionZeroDecisionIsNegative(t *testing.T) {
	model := &LogisticRegression{Coef: []float64{1, -1}}
	label, p, err := model.Predict([]float64{3, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 0.5 {
		t.Fatalf("expected probability 0.5, got %f", p)
	}
	if label != 0 {
		t.Fatalf("expected label 0 at the decision boundary, got %d", label)
	}
}

func TestLogisticRegressionThreshold(t *testing.T) {
	model := &LogisticRegression{Coef: []float64{1}, Threshold: 0.9}
	label, _, err := model.Predict([]float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
}

func TestDecodeLinearSVC(t *testing.T) {
	model, err := DecodeClassifier([]byte(`{"type":"linear_svc","coef":[0.5,0.5],"intercept":-1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero margin is the negative class.
	if label, _, _ := model.Predict([]float64{1, 1}); label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	if label, _, _ := model.Predict([]float64{2, 2}); label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestDecodeDecisionTree(t *testing.T) {
	payload := `{"type":"decision_tree","n_features":1,"nodes":[
		{"feature_idx":0,"threshold":0,"left_child":1,"right_child":2},
		{"is_leaf":true,"class_label":0},
		{"is_leaf":true,"class_label":1}]}`
	model, err := DecodeClassifier([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, _, err := model.Predict([]float64{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestDecodeClassifierErrors(t *testing.T) {
	if _, err := DecodeClassifier([]byte(`{"type":"random_forest"}`)); err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if _, err := DecodeClassifier([]byte(`{"type":"logistic_regression","coef":[]}`)); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scaler.json")
	if err := os.WriteFile(path, []byte(`{"type":"standard","mean":[0],"scale":[1]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	scaler, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaler.NumFeatures() != 1 {
		t.Fatalf("expected 1 feature, got %d", scaler.NumFeatures())
	}

	if _, err := LoadClassifier(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
