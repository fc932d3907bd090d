// Package errors provides structured errors for otherwords.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Source and index I/O errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category classifies errors.
type Category string

const (
	// CategoryConfig indicates configuration errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates source or index I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates invalid user input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal means the index cannot be used.
	SeverityFatal Severity = "FATAL"
	// SeverityError means the operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning means the operation was skipped or degraded.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigWrite    = "ERR_103_CONFIG_WRITE"

	// IO errors (200-299)
	ErrCodeSourceNotFound = "ERR_201_SOURCE_NOT_FOUND"
	ErrCodeSourcePerm     = "ERR_202_SOURCE_PERMISSION"
	ErrCodeSourceRead     = "ERR_203_SOURCE_READ"
	ErrCodeIndexOpen      = "ERR_204_INDEX_OPEN"
	ErrCodeIndexCorrupt   = "ERR_205_INDEX_CORRUPT"
	ErrCodeIndexLocked    = "ERR_206_INDEX_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty       = "ERR_402_QUERY_EMPTY"
	ErrCodeInvalidSignature = "ERR_403_INVALID_SIGNATURE"
	ErrCodeResetUnconfirmed = "ERR_404_RESET_UNCONFIRMED"
	ErrCodeInvalidPath      = "ERR_405_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeIndexFailed  = "ERR_502_INDEX_FAILED"
	ErrCodeLookupFailed = "ERR_503_LOOKUP_FAILED"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "1" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexCorrupt:
		return SeverityFatal
	case ErrCodeResetUnconfirmed:
		return SeverityWarning
	default:
		return SeverityError
	}
}
