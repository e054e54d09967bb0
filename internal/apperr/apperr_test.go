package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryableKinds(t *testing.T) {
	assert.True(t, Transient("NETWORK_ERROR", "down").Retryable())

	for _, e := range []*Error{
		Validation("BAD", "bad input"),
		NotFound("MISSING", "not found"),
		Auth("MISSING_TOKEN", "no token"),
		Forbidden("INVALID_SIGNATURE", "bad signature"),
		Conflict("DUP", "duplicate"),
		RateLimited("slow down", 30),
		Gone("EXPIRED", "expired"),
		Internal("oops"),
	} {
		assert.False(t, e.Retryable(), e.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient("NETWORK_ERROR", "down")))
	assert.False(t, IsRetryable(Validation("BAD", "bad")))

	// Wrapped application errors keep their classification.
	wrapped := fmt.Errorf("context: %w", Forbidden("INVALID_SIGNATURE", "bad"))
	assert.False(t, IsRetryable(wrapped))

	// Raw transport errors are treated as transient.
	assert.True(t, IsRetryable(errors.New("connection reset")))
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusGone, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
		{http.StatusServiceUnavailable, KindTransient},
	}
	for _, tc := range cases {
		e := FromStatus(tc.status, "CODE", "message")
		assert.Equal(t, tc.kind, e.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, e.Status)
	}

	// Missing code falls back to the status text.
	e := FromStatus(http.StatusNotFound, "", "gone")
	assert.Equal(t, http.StatusText(http.StatusNotFound), e.Code)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("tcp: connection refused")
	e := Transient("NETWORK_ERROR", "request failed").Wrap(cause)

	require.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "NETWORK_ERROR")
	assert.Contains(t, e.Error(), "connection refused")

	var ae *Error
	require.ErrorAs(t, fmt.Errorf("outer: %w", e), &ae)
	assert.Equal(t, KindTransient, ae.Kind)
}
