// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Declarative building data errors.
	ErrMalformedData = errors.New("malformed building data")

	// Transaction algorithm errors.
	ErrAlgorithmCreation = errors.New("failed to create transaction algorithm")

	// Host errors.
	ErrHostRejected    = errors.New("host rejected request")
	ErrHostUnavailable = errors.New("host service unavailable")

	// Persistence errors.
	ErrCorruptData = errors.New("corrupt persisted data")
	ErrNotFound    = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRecoverable reports whether err belongs to the engine's local-recovery
// taxonomy: the offending record is dropped and the host carries on.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedData) ||
		errors.Is(err, ErrAlgorithmCreation) ||
		errors.Is(err, ErrHostRejected) ||
		errors.Is(err, ErrCorruptData)
}

// Hex formats a 32-bit identifier the way the game tools display it.
func Hex(id uint32) string {
	return fmt.Sprintf("0x%08x", id)
}
