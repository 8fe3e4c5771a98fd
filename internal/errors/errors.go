package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the wallet client
var (
	// Authentication errors
	ErrAuthFailure       = errors.New("authentication failed")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotIdentified = errors.New("user not identified")

	// Transport errors
	ErrNetwork = errors.New("network error")

	// Persisted state errors
	ErrCorruptState = errors.New("corrupt persisted state")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
