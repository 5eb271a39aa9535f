package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeNotFound, 404, "story not found")
	assert.Equal(t, "not_found error (code 404): story not found", err.Error())

	cause := errors.New("connection refused")
	wrapped := Wrap(ErrorTypeNetwork, cause, "fetch failed")
	assert.Equal(t, "network error: fetch failed: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestTypeOfThroughWrapping(t *testing.T) {
	inner := New(ErrorTypeParsing, 200, "no payload")
	outer := fmt.Errorf("alice: %w", inner)

	assert.Equal(t, ErrorTypeParsing, TypeOf(outer))
	assert.True(t, Is(outer, ErrorTypeParsing))
	assert.False(t, Is(outer, ErrorTypeNotFound))
	assert.False(t, Is(nil, ErrorTypeParsing))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeServerError, true},
		{ErrorTypeNotFound, false},
		{ErrorTypeParsing, false},
		{ErrorTypeDownloadSkipped, false},
		{ErrorTypeStateIO, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(503))
	assert.True(t, IsRetryableStatusCode(599))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(403))
	assert.False(t, IsRetryableStatusCode(200))
}
