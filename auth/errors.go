package auth

import "errors"

var (
	// ErrNotConfigured is returned when no admin secret has been configured.
	ErrNotConfigured = errors.New("admin password is not configured")
	// ErrInvalidCredentials is returned when a submitted password is empty
	// or does not match the configured secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers every reason a session token is rejected.
	ErrInvalidToken = errors.New("invalid token")
)
