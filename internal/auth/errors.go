package auth

import "errors"

var (
	// ErrInvalidInput means a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateAccount   = errors.New("user already exists")
	// ErrUnauthenticated means no session token was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken means the token is malformed, forged, expired, or on the wrong channel.
	ErrInvalidToken = errors.New("invalid or expired session")
	ErrForbidden    = errors.New("access denied")
	ErrRateLimited  = errors.New("too many login attempts")
)
