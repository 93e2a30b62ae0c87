// Package errors provides structured error handling for graphquery.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (index, document store)
//   - 4XX: Validation and resolution errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates index and document store errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation and resolution errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Configuration errors (1XX)
	ErrCodeConfigInvalid  = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigNotFound = "ERR_102_CONFIG_NOT_FOUND"

	// Storage errors (2XX)
	ErrCodeStoreFailure = "ERR_201_STORE_FAILURE"
	ErrCodeStoreClosed  = "ERR_202_STORE_CLOSED"

	// Validation and resolution errors (4XX)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeUnknownIndex  = "ERR_402_UNKNOWN_INDEX"
	ErrCodeCycleDetected = "ERR_403_CYCLE_DETECTED"
	ErrCodeEmptyGraph    = "ERR_404_EMPTY_GRAPH"

	// Internal errors (5XX)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode derives the category from an error code prefix.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from an error code.
// Resolution errors abort the query but not the process.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodeConfigNotFound, ErrCodeEmptyGraph:
		return SeverityFatal
	default:
		return SeverityError
	}
}
