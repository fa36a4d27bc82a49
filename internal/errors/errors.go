package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the session client and the console
var (
	// Authentication errors
	ErrCredentialsRejected = errors.New("credentials rejected")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrProfileFetch        = errors.New("profile fetch failed")

	// Token errors
	ErrNoRefreshToken  = errors.New("no refresh token")
	ErrRefreshRejected = errors.New("refresh rejected")

	// Transport errors: network failures, timeouts and 5xx responses
	ErrTransport = errors.New("transport failure")

	// REST errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Transport marks err as a transport failure while keeping it in the chain.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}
