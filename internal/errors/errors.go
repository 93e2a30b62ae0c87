package errors

import (
	"fmt"
)

// GraphError is the structured error type for graphquery.
// It provides context for error handling, logging, and user presentation.
type GraphError struct {
	// Code is the unique error code (e.g., "ERR_402_UNKNOWN_INDEX").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with GraphError.
func (e *GraphError) Is(target error) bool {
	if t, ok := target.(*GraphError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *GraphError) WithDetail(key, value string) *GraphError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new GraphError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *GraphError {
	return &GraphError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a GraphError from an existing error.
// The error's message becomes the GraphError message.
func Wrap(code string, err error) *GraphError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *GraphError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *GraphError {
	return New(ErrCodeInvalidInput, message, cause)
}

// UnknownIndexError creates an error for an unregistered index identifier.
func UnknownIndexError(indexID string) *GraphError {
	return New(ErrCodeUnknownIndex,
		fmt.Sprintf("index %q is not registered in the graph", indexID), nil).
		WithDetail("index_id", indexID)
}

// CycleError creates an error for a cyclic placeholder reference.
func CycleError(indexID string) *GraphError {
	return New(ErrCodeCycleDetected,
		fmt.Sprintf("index %q is already on the resolution path", indexID), nil).
		WithDetail("index_id", indexID)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *GraphError {
	return New(ErrCodeInternal, message, cause)
}

// GetCode extracts the error code from a GraphError.
// Returns empty string if not a GraphError.
func GetCode(err error) string {
	if ge, ok := err.(*GraphError); ok {
		return ge.Code
	}
	return ""
}

// GetCategory extracts the category from a GraphError.
// Returns empty string if not a GraphError.
func GetCategory(err error) Category {
	if ge, ok := err.(*GraphError); ok {
		return ge.Category
	}
	return ""
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ge, ok := err.(*GraphError); ok {
		return ge.Severity == SeverityFatal
	}
	return false
}
