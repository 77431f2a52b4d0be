package errors

import (
	"fmt"
)

// Error is the structured error type for semdex.
// It carries a stable code, a category, and optional location details so
// loaders can report exactly where a file violated its grammar.
type Error struct {
	// Code is the unique error code (e.g., "ERR_202_PARSE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Ingest, Store, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is() against sentinel values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category, severity, and the retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error, keeping its message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// FormatError reports a file whose content matches no registered loader.
func FormatError(path string) *Error {
	return New(ErrCodeFormatUnknown, "unsupported or unrecognized file format", nil).
		WithDetail("path", path)
}

// ParseError reports a file that violates its format's grammar.
// line is 1-based; 0 means the location is not line-addressable.
func ParseError(format string, line int, cause error) *Error {
	msg := fmt.Sprintf("%s parse error: %v", format, cause)
	if line > 0 {
		msg = fmt.Sprintf("%s line %d parse error: %v", format, line, cause)
	}
	e := New(ErrCodeParse, msg, cause).WithDetail("format", format)
	if line > 0 {
		e = e.WithDetail("line", fmt.Sprintf("%d", line))
	}
	return e
}

// StoreError reports a failed bulk upsert or collection operation.
func StoreError(message string, cause error) *Error {
	return New(ErrCodeStoreUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsSoft reports whether an error is a per-record soft failure.
func IsSoft(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Severity == SeveritySoft
	}
	return false
}

// IsRetryable reports whether an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetCode extracts the error code, or "" if err is not an *Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
