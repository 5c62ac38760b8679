package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies provider failures for retry decisions, logs and metrics.
type ErrorKind string

const (
	KindRateLimit     ErrorKind = "rate_limit"
	KindTransient     ErrorKind = "transient"
	KindAuth          ErrorKind = "auth"
	KindBadRequest    ErrorKind = "bad_request"
	KindEmptyResponse ErrorKind = "empty_response"
	KindCanceled      ErrorKind = "canceled"
	KindUnknown       ErrorKind = "unknown"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm returned empty response")

// Error wraps a provider failure with its classification.
type Error struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindTransient, KindEmptyResponse:
		return true
	default:
		return false
	}
}

// NewError classifies err using the HTTP status code the provider reported.
func NewError(provider string, statusCode int, err error) *Error {
	kind := KindFromStatus(statusCode)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	case errors.Is(err, ErrEmptyResponse):
		kind = KindEmptyResponse
	}

	return &Error{Provider: provider, Kind: kind, StatusCode: statusCode, Err: err}
}

// KindFromStatus maps an HTTP status code onto an ErrorKind.
func KindFromStatus(code int) ErrorKind {
	switch {
	case code == 0:
		return KindUnknown
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusRequestTimeout, code >= http.StatusInternalServerError:
		return KindTransient
	case code >= http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// KindOf extracts the classification of err. Unclassified errors are unknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	if errors.Is(err, ErrEmptyResponse) {
		return KindEmptyResponse
	}

	return KindUnknown
}
