// Package artifacttest writes small deterministic artifacts for tests.
//
// Every fixture uses an identity standard scaler and a logistic regression that
// predicts 1 exactly when the condition's first feature is above 0.5.
package artifacttest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"medpredict/ml"
)

// Write creates <condition>_scaler.json and <condition>_model.json in dir for
// each condition, or for all conditions when none are given.
func Write(dir string, conditions ...ml.Condition) error {
	if len(conditions) == 0 {
		conditions = ml.Conditions()
	}
	for _, c := range conditions {
		n := ml.FeatureCount(c)
		mean := make([]float64, n)
		scale := make([]float64, n)
		coef := make([]float64, n)
		for i := range scale {
			scale[i] = 1
		}
		coef[0] = 1

		scaler := map[string]any{"type": "standard", "mean": mean, "scale": scale}
		model := map[string]any{"type": "logistic_regression", "coef": coef, "intercept": -0.5}
		if err := writeJSON(filepath.Join(dir, c.String()+"_scaler.json"), scaler); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(dir, c.String()+"_model.json"), model); err != nil {
			return err
		}
	}
	return nil
}

// Corrupt overwrites the condition's model file with bytes that cannot be decoded.
func Corrupt(dir string, c ml.Condition) error {
	return os.WriteFile(filepath.Join(dir, c.String()+"_model.json"), []byte("\x80\x04pickle"), 0o600)
}

// Payload returns a valid request body for c. positive sets the first feature
// so the fixture model predicts 1.
func Payload(c ml.Condition, positive bool) map[string]any {
	fields, err := ml.Fields(c)
	if err != nil {
		return nil
	}
	payload := make(map[string]any, len(fields))
	for i, f := range fields {
		payload[f.Name] = 0.25
		if i == 0 {
			if positive {
				payload[f.Name] = 1
			} else {
				payload[f.Name] = 0
			}
		}
	}
	return payload
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
