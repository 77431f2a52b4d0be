package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesClassification(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{ErrCodeParse, CategoryIngest, SeverityFatal, false},
		{ErrCodeEmptyBody, CategoryValidation, SeveritySoft, false},
		{ErrCodeRecordFailed, CategoryInternal, SeveritySoft, false},
		{ErrCodeStoreUnavailable, CategoryStore, SeverityError, true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.severity, e.Severity)
			assert.Equal(t, tt.retryable, e.Retryable)
		})
	}
}

func TestError_FormatAndUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	e := New(ErrCodeParse, "CSV parse error", cause)

	assert.Equal(t, "[ERR_202_PARSE] CSV parse error", e.Error())
	assert.ErrorIs(t, e, cause)
}

func TestError_IsMatchesByCode(t *testing.T) {
	a := New(ErrCodeParse, "one message", nil)
	b := New(ErrCodeParse, "different message", nil)
	assert.ErrorIs(t, a, b)

	c := New(ErrCodeFormatUnknown, "other code", nil)
	assert.NotErrorIs(t, a, c)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeParse, nil))

	cause := stderrors.New("boom")
	e := Wrap(ErrCodeJobStore, cause)
	require.NotNil(t, e)
	assert.Equal(t, ErrCodeJobStore, e.Code)
	assert.Contains(t, e.Message, "boom")
}

func TestParseError_LineDetails(t *testing.T) {
	cause := stderrors.New("unexpected token")
	e := ParseError("JSONL", 42, cause)
	assert.Contains(t, e.Message, "line 42")
	assert.Equal(t, "42", e.Details["line"])
	assert.Equal(t, "JSONL", e.Details["format"])

	// Line 0 means the location is not line-addressable.
	e = ParseError("JSON", 0, cause)
	assert.NotContains(t, e.Message, "line")
	_, hasLine := e.Details["line"]
	assert.False(t, hasLine)
}

func TestHelpers(t *testing.T) {
	soft := New(ErrCodeEmptyBody, "no text", nil)
	assert.True(t, IsSoft(soft))
	assert.False(t, IsSoft(New(ErrCodeParse, "x", nil)))
	assert.False(t, IsSoft(stderrors.New("plain")))

	assert.True(t, IsRetryable(StoreError("down", nil)))
	assert.False(t, IsRetryable(ValidationError("bad", nil)))

	assert.Equal(t, ErrCodeInvalidInput, GetCode(ValidationError("bad", nil)))
	assert.Empty(t, GetCode(stderrors.New("plain")))
}

func TestFormatError_CarriesPath(t *testing.T) {
	e := FormatError("/tmp/data.xyz")
	assert.Equal(t, ErrCodeFormatUnknown, e.Code)
	assert.Equal(t, "/tmp/data.xyz", e.Details["path"])
}
