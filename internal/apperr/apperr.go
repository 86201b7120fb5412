package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes handlers know how to render.
// None of these are retried automatically; each is scoped to the single
// triggering action.
var (
	// ErrAuthRequired means no authenticated owner was present
	ErrAuthRequired = errors.New("authentication required")
	// ErrNotFound means a referenced record does not exist or is not owned by the caller
	ErrNotFound = errors.New("not found")
	// ErrTransport means the remote AI call failed (non-2xx or network failure)
	ErrTransport = errors.New("ai transport failure")
	// ErrMalformedResponse means the AI response was missing a required field
	// or could not be parsed as JSON after fence stripping
	ErrMalformedResponse = errors.New("malformed ai response")
	// ErrValidation means user-supplied input failed format rules before any
	// network or store call
	ErrValidation = errors.New("validation failed")
)

// Transport wraps err as a transport failure.
func Transport(err error) error {
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// Malformed wraps err as a malformed-response failure.
func Malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

// Malformedf creates a malformed-response failure from a format string.
func Malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// Validationf creates a validation failure from a format string.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf creates a not-found failure from a format string.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
