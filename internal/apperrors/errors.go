package apperrors

import (
	"errors"
)

var (
	// Refresh token is unknown, already rotated or expired
	// The three causes are deliberately not distinguished to the caller
	ErrInvalidCredential = errors.New("invalid refresh token")

	// Google token failed verification or misses required claims (sub, verified email)
	ErrUnverifiedIdentity = errors.New("identity not verified")

	// Email already bound to an account with a different external identity
	ErrIdentityConflict = errors.New("email already in use by another account")

	ErrUserNotFound  = errors.New("user not found")
	ErrGuestNotFound = errors.New("guest account not found")
)
