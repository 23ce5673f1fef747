package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"medpredict/ml"
)

const (
	modelSuffix  = "_model.json"
	scalerSuffix = "_scaler.json"
)

// Loader produces the fitted artifacts for one condition.
type Loader interface {
	Load(ctx context.Context, c ml.Condition) (ml.Scaler, ml.Classifier, error)
}

// FileLoader reads <Dir>/<condition>_scaler.json and <Dir>/<condition>_model.json.
type FileLoader struct {
	Dir string
}

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

func (l *FileLoader) Load(ctx context.Context, c ml.Condition) (ml.Scaler, ml.Classifier, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	modelPath, scalerPath := l.Paths(c)

	scaler, err := ml.LoadScaler(scalerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load scaler %s: %w", scalerPath, err)
	}
	classifier, err := ml.LoadClassifier(modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	return scaler, classifier, nil
}

// Paths returns the model and scaler file paths for c.
func (l *FileLoader) Paths(c ml.Condition) (model, scaler string) {
	return filepath.Join(l.Dir, c.String()+modelSuffix), filepath.Join(l.Dir, c.String()+scalerSuffix)
}

// ConditionForFile maps an artifact file name back to its condition.
func ConditionForFile(path string) (ml.Condition, bool) {
	base := filepath.Base(path)
	for _, suffix := range []string{modelSuffix, scalerSuffix} {
		if name, ok := strings.CutSuffix(base, suffix); ok {
			c := ml.Condition(name)
			return c, c.Valid()
		}
	}
	return "", false
}
