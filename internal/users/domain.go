// Package users manages user accounts: creation, role assignment,
// deactivation and password resets. Authentication lives in internal/auth.
package users

import "time"

// User represents a managed user account. PasswordHash never leaves the
// repository layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserInput is the payload for creating a user account.
type CreateUserInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Role      string `json:"role" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
}

// UpdateUserInput is the payload for updating profile fields and role.
type UpdateUserInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Role      string `json:"role" validate:"required"`
}

// SetPasswordInput carries a new password for an account.
type SetPasswordInput struct {
	Password string `json:"password" validate:"required,min=8"`
}
