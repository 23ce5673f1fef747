package monitoring

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollectorRecordsRequests(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordRequest("heart", "ok", 10*time.Millisecond)
	mc.RecordRequest("heart", "ok", 30*time.Millisecond)
	mc.RecordRequest("heart", "missing_feature", 2*time.Millisecond)
	mc.RecordPrediction("heart", 1, false)
	mc.RecordPrediction("heart", 1, true)
	mc.RecordPrediction("heart", 0, false)

	snap := mc.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["heart"]["ok"])
	assert.Equal(t, int64(1), snap.Requests["heart"]["missing_feature"])
	assert.Equal(t, int64(2), snap.Predictions["heart"][1])
	assert.Equal(t, int64(1), snap.Predictions["heart"][0])
	assert.Equal(t, int64(1), snap.CacheHits["heart"])

	lat := snap.Latency["heart"]
	assert.Equal(t, int64(3), lat.Count)
	assert.InDelta(t, 2.0, lat.MinMs, 1e-9)
	assert.InDelta(t, 30.0, lat.MaxMs, 1e-9)
	assert.InDelta(t, 14.0, lat.AvgMs, 1e-9)
	assert.Contains(t, snap.System, "goroutines")
}

func TestMetricsSnapshotIsCopy(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordRequest("diabetes", "ok", time.Millisecond)
	snap := mc.Snapshot()
	snap.Requests["diabetes"]["ok"] = 100

	assert.Equal(t, int64(1), mc.Snapshot().Requests["diabetes"]["ok"])
}

func TestExportPrometheus(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordRequest("parkinsons", "ok", 5*time.Millisecond)
	mc.RecordPrediction("parkinsons", 1, false)

	out := mc.ExportPrometheus()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `medpredict_requests_total{condition="parkinsons",outcome="ok"} 1`)
	assert.Contains(t, out, `medpredict_predictions_total{condition="parkinsons",label="1"} 1`)
	assert.True(t, strings.Contains(out, "# TYPE medpredict_goroutines gauge"))
}
