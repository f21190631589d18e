package models

import (
	"errors"
	"fmt"
)

// Sentinel errors translated to HTTP statuses at the handler boundary
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError indicates a malformed or contradictory client request
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error with the given message
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError indicates a failed call to an external provider.
// Detail carries the upstream failure description for the error response body.
type UpstreamError struct {
	Provider string
	Detail   string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Detail)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
