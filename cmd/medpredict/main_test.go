package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medpredict/artifact/artifacttest"
	"medpredict/ml"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, artifacttest.Write(dir))
	t.Setenv("MEDPREDICT_ARTIFACT_DIR", dir)
	t.Setenv("MEDPREDICT_LOG_LEVEL", "error")

	input := filepath.Join(dir, "input.json")
	body, err := json.Marshal(artifacttest.Payload(ml.Heart, true))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(input, body, 0o600))

	out, err := execute(t, "predict", "HEART", "--input", input)
	require.NoError(t, err)

	var result struct {
		Condition  string `json:"condition"`
		Prediction int    `json:"prediction"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, "heart", result.Condition)
	assert.Equal(t, 1, result.Prediction)
}

func TestPredictCommandMissingFeature(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, artifacttest.Write(dir))
	t.Setenv("MEDPREDICT_ARTIFACT_DIR", dir)
	t.Setenv("MEDPREDICT_LOG_LEVEL", "error")

	input := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"age": 50}`), 0o600))

	_, err := execute(t, "predict", "diabetes", "--input", input)
	require.Error(t, err)
	assert.Equal(t, "Missing feature: pregnancies", err.Error())
}

func TestArtifactsCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, artifacttest.Write(dir, ml.Parkinsons, ml.Diabetes))
	t.Setenv("MEDPREDICT_ARTIFACT_DIR", dir)
	t.Setenv("MEDPREDICT_LOG_LEVEL", "error")

	out, err := execute(t, "artifacts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 conditions unavailable")
	assert.Contains(t, out, "CONDITION")
	assert.Contains(t, out, "parkinsons")
	assert.Contains(t, out, "unavailable")
}
