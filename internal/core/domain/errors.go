package domain

import (
	"errors"
	"fmt"
)

// Authentication and authorization outcomes.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	ErrAccountDisabled    = fmt.Errorf("account is disabled: %w", ErrUnauthenticated)
	ErrForbidden          = errors.New("access forbidden")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

// Directory outcomes.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrUsernameTaken     = fmt.Errorf("username is already taken: %w", ErrUserExists)
	ErrEmailTaken        = fmt.Errorf("email is already in use: %w", ErrUserExists)
	ErrInvalidCredential = errors.New("current password is incorrect")
	ErrValidation        = errors.New("validation failed")
)

// Invalid wraps ErrValidation with a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
