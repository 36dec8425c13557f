package llm

import (
	"log/slog"
	"sync"
)

// Metrics tracks LLM usage statistics
type Metrics struct {
	TotalRequests    int64
	TotalTokens      int64
	TotalDurationMs  int64
	AverageLatencyMs float64
	ErrorCount       int64
}

// MetricsCollector accumulates Metrics. A nil collector ignores records.
type MetricsCollector struct {
	mu      sync.Mutex
	metrics Metrics
	logger  *slog.Logger
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	return &MetricsCollector{logger: logger}
}

// Record adds a successful response
func (mc *MetricsCollector) Record(resp *GenerateResponse) {
	if mc == nil {
		return
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.TotalRequests++
	mc.metrics.TotalTokens += int64(resp.EvalCount + resp.PromptEvalCount)
	mc.metrics.TotalDurationMs += resp.TotalDuration / 1_000_000
	mc.metrics.AverageLatencyMs = float64(mc.metrics.TotalDurationMs) / float64(mc.metrics.TotalRequests)
}

// RecordError counts a failed request or rejected answer
func (mc *MetricsCollector) RecordError() {
	if mc == nil {
		return
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics.ErrorCount++
}

// Snapshot returns a copy of the current metrics
func (mc *MetricsCollector) Snapshot() Metrics {
	if mc == nil {
		return Metrics{}
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.metrics
}

// LogMetrics logs the current metrics
func (mc *MetricsCollector) LogMetrics() {
	m := mc.Snapshot()
	if mc == nil {
		return
	}
	mc.logger.Info("LLM metrics",
		"total_requests", m.TotalRequests,
		"total_tokens", m.TotalTokens,
		"avg_latency_ms", m.AverageLatencyMs,
		"error_count", m.ErrorCount)
}
