package ports

import (
	"context"
	"io"
	"time"

	"github.com/ahrav/outcmp/internal/domain"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like verdicts, timeouts, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like in-flight evaluations.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like output sizes.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// SubmissionSource provides the submitted output for a suite case.
// Implementations could read from a directory of files, an object store,
// or an in-memory map in tests.
type SubmissionSource interface {
	// Submission returns the submitted output for caseID. It returns an
	// error wrapping domain.ErrSubmissionNotFound when no output exists.
	Submission(ctx context.Context, caseID string) (string, error)
}

// ReportWriter renders grading results for humans or machines.
type ReportWriter interface {
	// WriteResult renders a single comparison.
	WriteResult(w io.Writer, result domain.ComparisonResult) error

	// WriteSuite renders a full suite report.
	WriteSuite(w io.Writer, report domain.SuiteReport) error
}
