package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LatencyStats 延迟统计
type LatencyStats struct {
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	MinMs   float64 `json:"min_ms"`
	MaxMs   float64 `json:"max_ms"`
	AvgMs   float64 `json:"avg_ms"`
}

func (s *LatencyStats) observe(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if s.Count == 0 || ms < s.MinMs {
		s.MinMs = ms
	}
	if ms > s.MaxMs {
		s.MaxMs = ms
	}
	s.Count++
	s.TotalMs += ms
	s.AvgMs = s.TotalMs / float64(s.Count)
}

// MetricsSnapshot 指标快照
type MetricsSnapshot struct {
	Uptime      string                      `json:"uptime"`
	Requests    map[string]map[string]int64 `json:"requests"`
	Predictions map[string]map[int]int64    `json:"predictions"`
	CacheHits   map[string]int64            `json:"cache_hits"`
	Latency     map[string]LatencyStats     `json:"latency"`
	System      map[string]interface{}      `json:"system"`
}

// MetricsCollector 预测指标收集器
type MetricsCollector struct {
	mu sync.RWMutex

	requests    map[string]map[string]int64 // condition -> outcome -> count
	predictions map[string]map[int]int64    // condition -> label -> count
	cacheHits   map[string]int64
	latency     map[string]*LatencyStats

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		requests:    make(map[string]map[string]int64),
		predictions: make(map[string]map[int]int64),
		cacheHits:   make(map[string]int64),
		latency:     make(map[string]*LatencyStats),
		startTime:   time.Now(),
	}
}

// RecordRequest 记录一次预测请求的结果
func (mc *MetricsCollector) RecordRequest(condition, outcome string, d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.requests[condition] == nil {
		mc.requests[condition] = make(map[string]int64)
	}
	mc.requests[condition][outcome]++

	stats, ok := mc.latency[condition]
	if !ok {
		stats = &LatencyStats{}
		mc.latency[condition] = stats
	}
	stats.observe(d)
}

// RecordPrediction 记录预测标签
func (mc *MetricsCollector) RecordPrediction(condition string, label int, cached bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.predictions[condition] == nil {
		mc.predictions[condition] = make(map[int]int64)
	}
	mc.predictions[condition][label]++
	if cached {
		mc.cacheHits[condition]++
	}
}

// Snapshot 返回指标副本
func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snap := MetricsSnapshot{
		Uptime:      mc.GetUptime().String(),
		Requests:    make(map[string]map[string]int64, len(mc.requests)),
		Predictions: make(map[string]map[int]int64, len(mc.predictions)),
		CacheHits:   make(map[string]int64, len(mc.cacheHits)),
		Latency:     make(map[string]LatencyStats, len(mc.latency)),
		System:      systemStats(),
	}
	for c, outcomes := range mc.requests {
		copied := make(map[string]int64, len(outcomes))
		for k, v := range outcomes {
			copied[k] = v
		}
		snap.Requests[c] = copied
	}
	for c, labels := range mc.predictions {
		copied := make(map[int]int64, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		snap.Predictions[c] = copied
	}
	for c, n := range mc.cacheHits {
		snap.CacheHits[c] = n
	}
	for c, stats := range mc.latency {
		snap.Latency[c] = *stats
	}
	return snap
}

// ExportPrometheus 导出Prometheus文本格式
func (mc *MetricsCollector) ExportPrometheus() string {
	snap := mc.Snapshot()
	var b strings.Builder

	b.WriteString("# HELP medpredict_requests_total Prediction requests by condition and outcome\n")
	b.WriteString("# TYPE medpredict_requests_total counter\n")
	for _, c := range sortedKeys(snap.Requests) {
		outcomes := snap.Requests[c]
		for _, o := range sortedKeys(outcomes) {
			fmt.Fprintf(&b, "medpredict_requests_total{condition=%q,outcome=%q} %d\n", c, o, outcomes[o])
		}
	}

	b.WriteString("# HELP medpredict_predictions_total Predicted labels by condition\n")
	b.WriteString("# TYPE medpredict_predictions_total counter\n")
	for _, c := range sortedKeys(snap.Predictions) {
		labels := snap.Predictions[c]
		for _, label := range []int{0, 1} {
			if n, ok := labels[label]; ok {
				fmt.Fprintf(&b, "medpredict_predictions_total{condition=%q,label=\"%d\"} %d\n", c, label, n)
			}
		}
	}

	b.WriteString("# HELP medpredict_request_duration_ms_avg Average request duration in milliseconds\n")
	b.WriteString("# TYPE medpredict_request_duration_ms_avg gauge\n")
	for _, c := range sortedKeys(snap.Latency) {
		fmt.Fprintf(&b, "medpredict_request_duration_ms_avg{condition=%q} %f\n", c, snap.Latency[c].AvgMs)
	}

	fmt.Fprintf(&b, "# HELP medpredict_goroutines Number of goroutines\n# TYPE medpredict_goroutines gauge\nmedpredict_goroutines %d\n", runtime.NumGoroutine())
	return b.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// systemStats 获取系统统计
func systemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":      m.Alloc,
			"sys":        m.Sys,
			"heap_alloc": m.HeapAlloc,
			"heap_inuse": m.HeapInuse,
			"gc_count":   m.NumGC,
		},
		"num_cpu": runtime.NumCPU(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
