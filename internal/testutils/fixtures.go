package testutils

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// Verify interface compliance at compile time.
var (
	_ ports.SubmissionSource = MemorySource(nil)
	_ ports.MetricsCollector = (*RecordingCollector)(nil)
)

// MemorySource serves submissions from a map keyed by case ID.
type MemorySource map[string]string

// Submission returns the submission for caseID.
func (m MemorySource) Submission(ctx context.Context, caseID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, ok := m[caseID]
	if !ok {
		return "", fmt.Errorf("case %s: %w", caseID, domain.ErrSubmissionNotFound)
	}
	return out, nil
}

// RecordingCollector implements ports.MetricsCollector by remembering
// every call. Keys join the metric name with the sorted label values,
// e.g. "comparisons_total{mode_applied=STRICT,passed=true}".
type RecordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
	latencies  map[string][]time.Duration
}

// NewRecordingCollector creates an empty collector.
func NewRecordingCollector() *RecordingCollector {
	return &RecordingCollector{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
		latencies:  make(map[string][]time.Duration),
	}
}

// RecordLatency records the execution time of an operation.
func (r *RecordingCollector) RecordLatency(operation string, d time.Duration, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := MetricKey(operation, labels)
	r.latencies[key] = append(r.latencies[key], d)
}

// RecordCounter adds value to a counter.
func (r *RecordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[MetricKey(metric, labels)] += value
}

// RecordGauge sets a gauge.
func (r *RecordingCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[MetricKey(metric, labels)] = value
}

// RecordHistogram records an observation.
func (r *RecordingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := MetricKey(metric, labels)
	r.histograms[key] = append(r.histograms[key], value)
}

// Counter returns the current value of the counter under key.
func (r *RecordingCollector) Counter(key string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

// Gauge returns the last value set under key.
func (r *RecordingCollector) Gauge(key string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gauges[key]
}

// Latencies returns the durations recorded under key.
func (r *RecordingCollector) Latencies(key string) []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.latencies[key]...)
}

// Observations returns the histogram values recorded under key.
func (r *RecordingCollector) Observations(key string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.histograms[key]...)
}

// MetricKey formats a metric name and labels the way RecordingCollector
// indexes them.
func MetricKey(metric string, labels map[string]string) string {
	if len(labels) == 0 {
		return metric
	}
	keys := slices.Sorted(maps.Keys(labels))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + labels[k]
	}
	return metric + "{" + strings.Join(parts, ",") + "}"
}
