// Package middleware provides cross-cutting concerns for the comparison engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/outcmp/internal/ports"
)

const namespace = "outcmp"

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// Metric names the engine emits map onto dedicated collectors. Anything else
// lands in a generic vector labelled with the metric name.
type PrometheusMetrics struct {
	comparisons      *prometheus.CounterVec
	compareLatency   *prometheus.HistogramVec
	strategyLatency  *prometheus.HistogramVec
	strategyVerdicts *prometheus.CounterVec
	strategyTimeouts *prometheus.CounterVec
	poolInFlight     prometheus.Gauge
	inputBytes       prometheus.Histogram

	operationLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
	values           *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers its
// collectors with reg. A nil reg uses the global default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		comparisons: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparisons_total",
				Help:      "Total number of comparisons by applied mode and result.",
			},
			[]string{"mode_applied", "passed"},
		),
		compareLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compare_duration_seconds",
				Help:      "End-to-end comparison latency.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"mode_applied"},
		),
		strategyLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "strategy_evaluate_duration_seconds",
				Help:      "Latency of a single strategy evaluation.",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
			},
			[]string{"strategy"},
		),
		strategyVerdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "strategy_verdicts_total",
				Help:      "Verdicts reported by each strategy.",
			},
			[]string{"strategy", "outcome"},
		),
		strategyTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "strategy_timeouts_total",
				Help:      "Strategy evaluations abandoned after their time budget.",
			},
			[]string{"strategy"},
		),
		poolInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "strategy_pool_in_flight",
				Help:      "Strategy evaluations currently holding a pool slot.",
			},
		),
		inputBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "comparison_input_bytes",
				Help:      "Combined size of submitted and expected output per comparison.",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 12),
			},
		),

		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Latency of other engine operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Counters for other engine events.",
			},
			[]string{"metric"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Current values of other engine gauges.",
			},
			[]string{"metric"},
		),
		values: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "values",
				Help:      "Distributions of other engine values.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
	}
}

// label returns labels[key], or "unknown" when it is missing or empty.
func label(labels map[string]string, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	switch operation {
	case "compare":
		pm.compareLatency.WithLabelValues(label(labels, "mode_applied")).Observe(duration.Seconds())
	case "strategy_evaluate":
		pm.strategyLatency.WithLabelValues(label(labels, "strategy")).Observe(duration.Seconds())
	default:
		pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// RecordCounter implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "comparisons_total":
		pm.comparisons.WithLabelValues(label(labels, "mode_applied"), label(labels, "passed")).Add(value)
	case "strategy_verdicts_total":
		pm.strategyVerdicts.WithLabelValues(label(labels, "strategy"), label(labels, "outcome")).Add(value)
	case "strategy_timeouts_total":
		pm.strategyTimeouts.WithLabelValues(label(labels, "strategy")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	if metric == "strategy_pool_in_flight" {
		pm.poolInFlight.Set(value)
		return
	}
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, _ map[string]string,
) {
	if metric == "comparison_input_bytes" {
		pm.inputBytes.Observe(value)
		return
	}
	pm.values.WithLabelValues(metric).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
