package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOWError_Unwrap_PreservesCause(t *testing.T) {
	// Given: an original error
	cause := stderrors.New("original error")

	// When: wrapping it
	err := New(ErrCodeSourceRead, "read failed", cause)

	// Then: the chain is intact
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestOWError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "min_len must be >= 0",
			expected: "[ERR_102_CONFIG_INVALID] min_len must be >= 0",
		},
		{
			name:     "source error",
			code:     ErrCodeSourceNotFound,
			message:  "source not found: a.txt",
			expected: "[ERR_201_SOURCE_NOT_FOUND] source not found: a.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, tt.message, nil).Error())
		})
	}
}

func TestOWError_Is_MatchesByCode(t *testing.T) {
	a := New(ErrCodeInvalidSignature, "bad signature BA", nil)
	b := New(ErrCodeInvalidSignature, "bad signature AA", nil)
	c := New(ErrCodeQueryEmpty, "empty", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))

	wrapped := fmt.Errorf("lookup: %w", a)
	assert.True(t, stderrors.Is(wrapped, b))
	assert.Equal(t, ErrCodeInvalidSignature, GetCode(wrapped))
}

func TestCategoryAndSeverityFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeSourceNotFound, CategoryIO, SeverityError},
		{ErrCodeIndexCorrupt, CategoryIO, SeverityFatal},
		{ErrCodeResetUnconfirmed, CategoryValidation, SeverityWarning},
		{ErrCodeInternal, CategoryInternal, SeverityError},
		{"bad", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
	assert.True(t, IsFatal(New(ErrCodeIndexCorrupt, "x", nil)))
	assert.False(t, IsFatal(stderrors.New("plain")))
}

func TestSourceError_ClassifiesCause(t *testing.T) {
	// Given: a missing file
	_, statErr := os.Open(filepath.Join(t.TempDir(), "missing.txt"))

	// When: classifying it
	err := SourceError("missing.txt", statErr)

	// Then: it is a not-found error that still matches fs.ErrNotExist
	assert.Equal(t, ErrCodeSourceNotFound, err.Code)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "missing.txt", err.Details["path"])
	assert.NotEmpty(t, err.Suggestion)

	assert.Equal(t, ErrCodeSourcePerm, SourceError("x", fs.ErrPermission).Code)
	assert.Equal(t, ErrCodeSourceRead, SourceError("x", stderrors.New("io")).Code)
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestFormatForCLI(t *testing.T) {
	err := New(ErrCodeInvalidSignature, "signature \"BA\" is malformed", nil).
		WithSuggestion("Use 'otherwords canon' to compute a signature")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: signature \"BA\" is malformed")
	assert.Contains(t, out, "Hint: Use 'otherwords canon'")
	assert.Contains(t, out, "Code: ERR_403_INVALID_SIGNATURE")
	assert.Contains(t, FormatForCLI(stderrors.New("boom")), "ERR_501_INTERNAL")
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatInline(t *testing.T) {
	err := New(ErrCodeInvalidSignature, "signature \"BA\" is malformed", nil).
		WithSuggestion("Use 'otherwords canon' to compute a signature")

	assert.Equal(t, "signature \"BA\" is malformed. Use 'otherwords canon' to compute a signature", FormatInline(err))
	assert.Equal(t, "plain", FormatInline(New(ErrCodeInternal, "plain", nil)))
	assert.Empty(t, FormatInline(nil))
}

func TestFormatForUser(t *testing.T) {
	err := New(ErrCodeSourceRead, "failed to read a.txt", stderrors.New("EIO")).
		WithDetail("path", "a.txt").
		WithSuggestion("Check the disk")

	plain := FormatForUser(err, false)
	assert.Contains(t, plain, "Suggestion: Check the disk")
	assert.NotContains(t, plain, "EIO")

	debug := FormatForUser(err, true)
	assert.Contains(t, debug, "cause: EIO")
	assert.Contains(t, debug, "path: a.txt")

	assert.Equal(t, "boom", FormatForUser(stderrors.New("boom"), false))
}

func TestFormatJSON(t *testing.T) {
	data, err := FormatJSON(New(ErrCodeQueryEmpty, "phrase has no letters", nil))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"code": "ERR_402_QUERY_EMPTY",
		"message": "phrase has no letters",
		"category": "VALIDATION",
		"severity": "ERROR"
	}`, string(data))
}

func TestLogAttrs(t *testing.T) {
	attrs := LogAttrs(New(ErrCodeSourceRead, "read failed", nil).WithDetail("path", "a.txt"))
	assert.Contains(t, attrs, "error_code")
	assert.Contains(t, attrs, "detail_path")
	assert.Equal(t, []any{"error", "plain"}, LogAttrs(stderrors.New("plain")))
	assert.Nil(t, LogAttrs(nil))
}

func TestRetryWithResult(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2, ShouldRetry: IsRetryable}
	locked := New(ErrCodeIndexLocked, "index locked", nil)

	t.Run("retries lock conflicts until success", func(t *testing.T) {
		calls := 0
		v, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, locked
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
			calls++
			return 0, stderrors.New("corrupt")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
			calls++
			return 0, locked
		})
		assert.ErrorIs(t, err, locked)
		assert.Equal(t, 4, calls)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RetryWithResult(ctx, cfg, func() (int, error) { return 1, nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
