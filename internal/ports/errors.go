package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur while loading inputs or
// evaluating strategies.
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrStrategyPanic indicates that a strategy panicked during evaluation.
	ErrStrategyPanic = errors.New("strategy panicked")

	// ErrConfigNotFound indicates that a named config file does not exist.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrInvalidFormat indicates that an input or config file could not be
	// decoded.
	ErrInvalidFormat = errors.New("invalid format")
)

// MetricsError represents a failure to export collected metrics.
type MetricsError struct {
	// Target is the file or endpoint the metrics were written to.
	Target string

	// Operation is the export step that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, target=%s, err=%v", e.Operation, e.Target, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(target, operation string, err error) *MetricsError {
	return &MetricsError{
		Target:    target,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an unusable compare_config value or file.
type ConfigError struct {
	// ConfigKey is the compare_config key, or the path of the config file.
	ConfigKey string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{ConfigKey: key, Err: err}
}

// SourceError represents a failure to load a submission or suite file.
type SourceError struct {
	// Path is the file or object that could not be read.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for SourceError.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source error: path=%s, err=%v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError creates a new SourceError with the given details.
func NewSourceError(path string, err error) *SourceError {
	return &SourceError{Path: path, Err: err}
}
