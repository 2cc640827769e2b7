package auth

import "errors"

var (
	// ErrUnauthenticated is returned when no valid session identity resolves.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden is returned when the identity lacks the required capability.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrInvalidToken indicates the session token failed validation.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrInvalidInput marks malformed registration or profile input.
	ErrInvalidInput = errors.New("auth: invalid input")
	// ErrNotFound is returned for unknown user ids.
	ErrNotFound = errors.New("auth: not found")
	// ErrConflict is returned when an email address is already registered.
	ErrConflict = errors.New("auth: already exists")
)
