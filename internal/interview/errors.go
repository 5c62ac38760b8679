package interview

import "errors"

var (
	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidState is returned when an operation does not fit the session state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrUpstream wraps failures of the language model backend.
	ErrUpstream = errors.New("upstream model failure")
	// ErrInvalidInput is returned for request parameters out of range.
	ErrInvalidInput = errors.New("invalid input")
)
