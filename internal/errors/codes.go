// Package errors provides structured error handling for semdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Ingest errors (format detection, parsing)
//   - 3XX: Store and network errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIngest indicates file loading and parsing errors.
	CategoryIngest Category = "INGEST"
	// CategoryStore indicates search-store and network errors.
	CategoryStore Category = "STORE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, the job must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but processing can continue.
	SeverityError Severity = "ERROR"
	// SeveritySoft indicates a per-record failure that is counted, never aborts.
	SeveritySoft Severity = "SOFT"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Ingest errors (200-299)
	ErrCodeFormatUnknown = "ERR_201_FORMAT_UNKNOWN"
	ErrCodeParse         = "ERR_202_PARSE"
	ErrCodeFileNotFound  = "ERR_203_FILE_NOT_FOUND"
	ErrCodeFileTooLarge  = "ERR_204_FILE_TOO_LARGE"
	ErrCodeNoRecords     = "ERR_205_NO_RECORDS"

	// Store errors (300-399)
	ErrCodeStoreUnavailable = "ERR_301_STORE_UNAVAILABLE"
	ErrCodeCollectionExists = "ERR_302_COLLECTION_EXISTS"
	ErrCodeEmbedFailed      = "ERR_303_EMBED_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeEmptyBody         = "ERR_403_EMPTY_BODY"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeRecordFailed = "ERR_502_RECORD_FAILED"
	ErrCodeJobStore     = "ERR_503_JOB_STORE"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIngest
	case '3':
		return CategoryStore
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on the error code.
// Soft codes are the per-record failures of the pipeline; they are counted
// against the job but never abort it.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeEmptyBody, ErrCodeRecordFailed, ErrCodeEmbedFailed:
		return SeveritySoft
	case ErrCodeFormatUnknown, ErrCodeParse, ErrCodeNoRecords:
		return SeverityFatal
	}
	return SeverityError
}

// isRetryableCode reports whether an error code represents a retryable error.
// Only store connectivity is retryable; retries themselves are a dispatcher
// concern, the flag is informational.
func isRetryableCode(code string) bool {
	return code == ErrCodeStoreUnavailable
}
