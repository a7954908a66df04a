package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the prediction call timed out.
	ExitErrorService  = 3   // Indicates the prediction service failed or answered badly.
	ExitErrorConfig   = 4   // Indicates a configuration or input error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// RequestError reports a valuation request that does not have the expected
// shape. A request carrying one is never forwarded to the prediction service.
type RequestError struct {
	// Field is the attribute at fault, or empty when the request as a whole is.
	Field string
	// Message explains what is wrong with the request.
	Message string
}

// Error returns a formatted message describing the malformed request.
func (e RequestError) Error() string {
	if e.Field == "" {
		return "malformed request: " + e.Message
	}
	return fmt.Sprintf("malformed request attribute %q: %s", e.Field, e.Message)
}

// ServiceErrorKind classifies how the prediction service failed.
type ServiceErrorKind string

const (
	KindNetwork      ServiceErrorKind = "network"
	KindValidation   ServiceErrorKind = "validation"
	KindServer       ServiceErrorKind = "server"
	KindTimeout      ServiceErrorKind = "timeout"
	KindInvalidPrice ServiceErrorKind = "invalid_price"
)

// ServiceError encapsulates a failure of the prediction service while
// preserving the original cause.
type ServiceError struct {
	// Kind classifies the failure.
	Kind ServiceErrorKind
	// Cause is the underlying error.
	Cause error
}

// Error returns the kind followed by the cause message.
func (e ServiceError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("prediction service %s error", e.Kind)
	}
	return fmt.Sprintf("prediction service %s error: %v", e.Kind, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e ServiceError) Unwrap() error { return e.Cause }

// NewServiceError builds a ServiceError of the given kind with a formatted cause.
func NewServiceError(kind ServiceErrorKind, format string, a ...any) error {
	return ServiceError{Kind: kind, Cause: fmt.Errorf(format, a...)}
}

// TimeoutError represents an operation timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsServiceKind reports whether err is a ServiceError of the given kind.
func IsServiceKind(err error, kind ServiceErrorKind) bool {
	var se ServiceError
	return errors.As(err, &se) && se.Kind == kind
}
