package errors

import (
	"errors"
	"fmt"
)

// Common error types for the storefront session lifecycle
var (
	// Session errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionExpired  = errors.New("session expired")

	// Callback errors
	ErrCSRFStateInvalid = errors.New("invalid csrf state")
	ErrProviderRejected = errors.New("identity provider rejected the request")
	ErrExchangeFailed   = errors.New("token exchange failed")

	// Transport errors
	ErrNetworkFailure = errors.New("network failure")
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
