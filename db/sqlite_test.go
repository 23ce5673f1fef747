package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *PredictionLog {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "data", "predictions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestPredictionLogSaveAndRecent(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()

	first := &PredictionRecord{RequestID: "req-1", Condition: "heart", Prediction: 1, Confidence: 0.8, Features: []float64{1, 2}, ModelVersion: 3}
	second := &PredictionRecord{Condition: "diabetes", Prediction: 0, Confidence: 0.2, Features: []float64{4}, ModelVersion: 1, Cached: true}
	require.NoError(t, log.Save(ctx, first))
	require.NoError(t, log.Save(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	all, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "diabetes", all[0].Condition)
	assert.True(t, all[0].Cached)
	assert.Equal(t, []float64{1, 2}, all[1].Features)
	assert.Equal(t, "req-1", all[1].RequestID)
	assert.Equal(t, uint64(3), all[1].ModelVersion)

	heart, err := log.Recent(ctx, "heart", 10)
	require.NoError(t, err)
	require.Len(t, heart, 1)
	assert.Equal(t, 1, heart[0].Prediction)
}

func TestPredictionLogRecentLimit(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, log.Save(ctx, &PredictionRecord{Condition: "heart", Features: []float64{float64(i)}}))
	}
	records, err := log.Recent(ctx, "heart", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []float64{4}, records[0].Features)
}

func TestPredictionLogCounts(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	for _, label := range []int{1, 1, 0} {
		require.NoError(t, log.Save(ctx, &PredictionRecord{Condition: "heart", Prediction: label, Features: []float64{}}))
	}
	counts, err := log.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["heart"][1])
	assert.Equal(t, int64(1), counts["heart"][0])
}

func TestOpenInMemory(t *testing.T) {
	log, err := Open(":memory:")
	require.NoError(t, err)
	defer log.Close()
	require.NoError(t, log.Save(context.Background(), &PredictionRecord{Condition: "heart", Features: []float64{1}}))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
