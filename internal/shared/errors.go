package shared

import "errors"

var (
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled indicates a login attempt against a deactivated user.
	ErrAccountDisabled = errors.New("account disabled")
)
