package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned when a sign-in attempt is rejected
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when signing up with an existing email
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccessDenied is returned when an authenticated user lacks the
	// role required for the requested resource
	ErrAccessDenied = errors.New("access denied")

	// ErrTimeout is returned when an auth round trip exceeds its budget.
	// It is surfaced distinctly and never silently downgraded to signed-out.
	ErrTimeout = errors.New("operation timed out")

	// ErrNetwork is returned when the backing store is unreachable
	ErrNetwork = errors.New("network failure")
)

// IsTimeout reports whether err represents an exceeded deadline
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
