// Package apperrors defines the application's error classes and the process
// exit code each of them maps to.
//
// Every error type implements Unwrap where it carries a cause, so errors.Is
// and errors.As see through it.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess           = 0   // Successful execution.
	ExitErrorGeneric      = 1   // Unclassified failure.
	ExitErrorTimeout      = 2   // The calculation deadline was reached.
	ExitErrorMismatch     = 3   // Variants disagreed on a result.
	ExitErrorConfig       = 4   // Invalid flags or environment.
	ExitErrorInvalidInput = 5   // Negative index or cache capacity exceeded.
	ExitErrorCanceled     = 130 // Interrupted (e.g. SIGINT).
)

// ConfigError reports invalid user configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError returns a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError wraps the failure of a single calculation.
type CalculationError struct {
	// Algorithm is the registry key of the variant that failed, if known.
	Algorithm string
	Cause     error
}

func (e CalculationError) Error() string {
	if e.Algorithm != "" {
		return fmt.Sprintf("%s: %v", e.Algorithm, e.Cause)
	}
	return e.Cause.Error()
}

func (e CalculationError) Unwrap() error { return e.Cause }

// MismatchError reports variants that returned different values for the
// same index.
type MismatchError struct {
	Index   int
	Results map[string]float64
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("results disagree for index %d: %v", e.Index, e.Results)
}

// ServerError wraps a failure of the HTTP server.
type ServerError struct {
	Message string
	Cause   error
}

func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError returns a ServerError; cause may be nil.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError reports an invalid request or configuration field.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError returns a ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// WrapError prefixes err with a formatted message, keeping it unwrappable.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err is a cancellation or a deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
