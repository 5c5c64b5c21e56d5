// Package common defines shared constants and sentinel errors used across
// client and server layers of pmcloud. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorValidation         = errors.New("validation error")
	ErrorBackendUnavailable = errors.New("backend unavailable")

	// Session admission errors.
	ErrorBusy                 = errors.New("vault is held by another session")
	ErrNoActiveSession        = errors.New("no open instances detected")
	ErrMultipleActiveSessions = errors.New("multiple open instances detected")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")
	ErrRateLimited  = errors.New("too many requests")
)

// SessionConflictError is returned by a failed compare-and-increment of the
// session counter. Current is the value observed in the store.
type SessionConflictError struct {
	AccountID string
	Current   int64
}

func (e *SessionConflictError) Error() string {
	return fmt.Sprintf("session counter conflict for account %s: current=%d", e.AccountID, e.Current)
}

// Unwrap makes errors.Is(err, ErrorConflict) hold.
func (e *SessionConflictError) Unwrap() error {
	return ErrorConflict
}

// Backend wraps an unexpected store error so that it matches
// ErrorBackendUnavailable while keeping the cause inspectable.
func Backend(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrorBackendUnavailable, err)
}
