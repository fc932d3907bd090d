package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// OWError is the structured error type returned across package boundaries.
type OWError struct {
	// Code is the unique error code (e.g., "ERR_201_SOURCE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *OWError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *OWError) Unwrap() error {
	return e.Cause
}

// Is matches another OWError by code.
func (e *OWError) Is(target error) bool {
	if t, ok := target.(*OWError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail and returns e.
func (e *OWError) WithDetail(key, value string) *OWError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the user hint and returns e.
func (e *OWError) WithSuggestion(suggestion string) *OWError {
	e.Suggestion = suggestion
	return e
}

// New creates an OWError. Category and severity are derived from the code.
func New(code string, message string, cause error) *OWError {
	return &OWError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an OWError whose message is err's message.
func Wrap(code string, err error) *OWError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error.
func ConfigError(message string, cause error) *OWError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *OWError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *OWError {
	return New(ErrCodeInternal, message, cause)
}

// SourceError classifies a failure to read a source by its cause.
func SourceError(path string, cause error) *OWError {
	var e *OWError
	switch {
	case stderrors.Is(cause, fs.ErrNotExist):
		e = New(ErrCodeSourceNotFound, "source not found: "+path, cause).
			WithSuggestion("Check the path and try again")
	case stderrors.Is(cause, fs.ErrPermission):
		e = New(ErrCodeSourcePerm, "permission denied reading "+path, cause)
	default:
		e = New(ErrCodeSourceRead, fmt.Sprintf("failed to read %s: %v", path, cause), cause)
	}
	return e.WithDetail("path", path)
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	var e *OWError
	return stderrors.As(err, &e) && e.Severity == SeverityFatal
}

// GetCode returns the code of the first OWError in err's chain, or "".
func GetCode(err error) string {
	var e *OWError
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory returns the category of the first OWError in err's chain.
func GetCategory(err error) Category {
	var e *OWError
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}

// As is errors.As, re-exported so callers need only this package.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is is errors.Is, re-exported so callers need only this package.
func Is(err, target error) bool { return stderrors.Is(err, target) }
