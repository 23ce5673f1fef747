package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type envelope struct {
	Type string `json:"type"`
}

type fittedArtifact interface {
	validate() error
}

// ScalerDecoders and ClassifierDecoders map an artifact's "type" field to a
// constructor for the matching Go type.
var ScalerDecoders = map[string]func() Scaler{
	"standard": func() Scaler { return &StandardScaler{} },
	"minmax":   func() Scaler { return &MinMaxScaler{} },
}

var ClassifierDecoders = map[string]func() Classifier{
	"logistic_regression": func() Classifier { return &LogisticRegression{} },
	"linear_svc":          func() Classifier { return &LinearSVC{} },
	"decision_tree":       func() Classifier { return &DecisionTree{} },
}

func DecodeScaler(data []byte) (Scaler, error) {
	kind, err := artifactType(data)
	if err != nil {
		return nil, err
	}
	newScaler, ok := ScalerDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported scaler type %q", kind)
	}
	scaler := newScaler()
	if err := decodeInto(data, scaler); err != nil {
		return nil, fmt.Errorf("decode %s scaler: %w", kind, err)
	}
	return scaler, nil
}

func DecodeClassifier(data []byte) (Classifier, error) {
	kind, err := artifactType(data)
	if err != nil {
		return nil, err
	}
	newClassifier, ok := ClassifierDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported classifier type %q", kind)
	}
	classifier := newClassifier()
	if err := decodeInto(data, classifier); err != nil {
		return nil, fmt.Errorf("decode %s classifier: %w", kind, err)
	}
	return classifier, nil
}

func LoadScaler(path string) (Scaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeScaler(payload)
}

func LoadClassifier(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeClassifier(payload)
}

func artifactType(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("invalid artifact: %w", err)
	}
	if env.Type == "" {
		return "", errors.New("invalid artifact: missing type")
	}
	return env.Type, nil
}

func decodeInto(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return err
	}
	if v, ok := target.(fittedArtifact); ok {
		return v.validate()
	}
	return nil
}
