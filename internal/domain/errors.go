package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during comparison operations.
var (
	// ErrMissingExpected indicates that a comparison was requested without
	// an expected output. This is a malformed call, not a grading failure.
	ErrMissingExpected = errors.New("expected output is missing")

	// ErrUnknownMode indicates that a mode is not part of the closed set.
	ErrUnknownMode = errors.New("unknown comparison mode")

	// ErrDuplicateMode indicates that two strategies claimed the same mode.
	ErrDuplicateMode = errors.New("duplicate comparison mode")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrSubmissionNotFound indicates that no submitted output exists for a case.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// StrategyError describes a strategy that could not be evaluated.
type StrategyError struct {
	// Mode is the strategy that failed.
	Mode Mode

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StrategyError.
func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy error: mode=%s, err=%v", e.Mode, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *StrategyError) Unwrap() error { return e.Err }

// NewStrategyError creates a new StrategyError with the given details.
func NewStrategyError(mode Mode, err error) *StrategyError {
	return &StrategyError{Mode: mode, Err: err}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
