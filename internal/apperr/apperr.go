// Package apperr defines the error taxonomy shared by the server handlers
// and the client sync layer. Every error carries the wire error code and an
// HTTP-style status; Retryable reports whether the sync queue may retry it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for retry and propagation decisions.
type Kind int

const (
	KindValidation Kind = iota // malformed/out-of-range input
	KindNotFound               // unknown player/map/request
	KindAuth                   // missing/invalid/expired token
	KindForbidden              // signature mismatch, ownership violation
	KindConflict               // duplicate resource
	KindRateLimited            // too many requests
	KindTransient              // network/timeout/5xx, eligible for retry
	KindFatal                  // programming/config error
)

// Error is the application error type. Code is the wire error identifier
// (e.g. INVALID_SIGNATURE), Status the HTTP status it maps to.
type Error struct {
	Kind       Kind
	Code       string
	Status     int
	Message    string
	RetryAfter int // seconds, only set for rate-limited errors
	err        error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Retryable reports whether the sync queue may retry this error.
// Only transient failures qualify; retrying a 400 cannot succeed.
func (e *Error) Retryable() bool { return e.Kind == KindTransient }

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	clone := *e
	clone.err = err
	return &clone
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Status: http.StatusBadRequest, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Status: http.StatusNotFound, Message: message}
}

func Auth(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Status: http.StatusForbidden, Message: message}
}

// Gone marks a resource that existed but can no longer be acted on,
// such as an expired rescue request.
func Gone(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Status: http.StatusGone, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Status: http.StatusConflict, Message: message}
}

func RateLimited(message string, retryAfter int) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Code:       "RATE_LIMIT_EXCEEDED",
		Status:     http.StatusTooManyRequests,
		Message:    message,
		RetryAfter: retryAfter,
	}
}

func Transient(code, message string) *Error {
	return &Error{Kind: KindTransient, Code: code, Status: http.StatusServiceUnavailable, Message: message}
}

func Internal(message string) *Error {
	return &Error{Kind: KindFatal, Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError, Message: message}
}

// FromStatus maps an HTTP status code from the wire back into the taxonomy.
// Used by the client transport to classify non-2xx responses.
func FromStatus(status int, code, message string) *Error {
	if code == "" {
		code = http.StatusText(status)
	}
	e := &Error{Code: code, Status: status, Message: message}
	switch {
	case status == http.StatusBadRequest:
		e.Kind = KindValidation
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
	case status == http.StatusNotFound || status == http.StatusGone:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status >= 500:
		e.Kind = KindTransient
	default:
		e.Kind = KindFatal
	}
	return e
}

// IsRetryable reports whether err (or anything it wraps) is a retryable
// application error. Unknown error types are treated as transient network
// failures, matching the transport's behavior on connection errors.
func IsRetryable(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return true
}

// KindOf extracts the kind of err, or KindTransient for non-application errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransient
}
