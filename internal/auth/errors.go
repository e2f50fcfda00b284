package auth

import "errors"

var (
	// ErrMissingCredentials is returned when identity or secret is empty.
	ErrMissingCredentials = errors.New("auth: missing credentials")
	// ErrInvalidCredentials covers both an unknown identity and a wrong secret.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword is returned when a new password fails the policy.
	ErrWeakPassword = errors.New("auth: weak password")
	// ErrPasswordEqualsUsername is returned when a new password repeats the username.
	ErrPasswordEqualsUsername = errors.New("auth: password equals username")
	// ErrStoreUnavailable wraps user or capability store failures.
	ErrStoreUnavailable = errors.New("auth: store unavailable")
	// ErrMigrationWriteFailed marks a failed plaintext upgrade. It is logged, never returned.
	ErrMigrationWriteFailed = errors.New("auth: credential migration write failed")
	// ErrInvalidResetToken is returned for forged, expired, misused or replayed reset tokens.
	ErrInvalidResetToken = errors.New("auth: invalid reset token")
)
