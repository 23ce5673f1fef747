// Package pipeline turns a request payload into a prediction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medpredict/artifact"
	"medpredict/ml"
)

// ArtifactSource yields the fitted artifacts for a condition.
type ArtifactSource interface {
	Get(ctx context.Context, c ml.Condition) (*artifact.Pair, error)
}

// Result is the outcome of one successful prediction.
type Result struct {
	Condition    ml.Condition  `json:"condition"`
	Prediction   int           `json:"prediction"`
	Confidence   float64       `json:"confidence"`
	Features     []float64     `json:"features"`
	ModelVersion uint64        `json:"model_version"`
	Cached       bool          `json:"cached"`
	Duration     time.Duration `json:"duration"`
}

type Pipeline struct {
	artifacts ArtifactSource
	cache     *resultCache
	logger    *zap.Logger
}

// New builds a pipeline. cacheSize <= 0 disables result caching.
func New(artifacts ArtifactSource, cacheSize int, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := newResultCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &Pipeline{artifacts: artifacts, cache: cache, logger: logger}, nil
}

// Predict validates payload against c's feature map, scales the ordered
// vector and classifies it. Each step can fail with a typed error; nothing is
// retried here.
func (p *Pipeline) Predict(ctx context.Context, c ml.Condition, payload map[string]any) (*Result, error) {
	start := time.Now()

	fields, err := ml.Fields(c)
	if err != nil {
		return nil, &UnknownConditionError{Name: c.String()}
	}

	pair, err := p.artifacts.Get(ctx, c)
	if err != nil {
		if errors.Is(err, ml.ErrUnknownCondition) {
			return nil, &UnknownConditionError{Name: c.String()}
		}
		return nil, &ModelUnavailableError{Condition: c, Err: err}
	}

	vector, err := BuildVector(fields, payload)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Condition:    c,
		Features:     vector,
		ModelVersion: pair.Version,
	}

	key := cacheKey(c, pair.Version, vector)
	if hit, ok := p.cache.get(key); ok {
		result.Prediction = hit.label
		result.Confidence = hit.confidence
		result.Cached = true
		result.Duration = time.Since(start)
		return result, nil
	}

	scaled, err := pair.Scaler.Transform(vector)
	if err != nil {
		return nil, fmt.Errorf("scale %s features: %w", c, err)
	}
	label, confidence, err := pair.Classifier.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", c, err)
	}
	if label != 0 && label != 1 {
		return nil, fmt.Errorf("classify %s: non-binary label %d", c, label)
	}

	p.cache.add(key, cachedPrediction{label: label, confidence: confidence})

	result.Prediction = label
	result.Confidence = confidence
	result.Duration = time.Since(start)
	p.logger.Debug("prediction",
		zap.String("condition", c.String()),
		zap.Int("prediction", label),
		zap.Float64("confidence", confidence),
		zap.Uint64("model_version", pair.Version),
	)
	return result, nil
}

// CacheLen reports the number of memoised results.
func (p *Pipeline) CacheLen() int {
	return p.cache.len()
}
