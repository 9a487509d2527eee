// Package auth implements login, logout and request authentication. Access
// tokens are signed JWTs carrying a Redis-backed session id, so logout can
// revoke a token before its expiry.
package auth

import "time"

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Account is the subset of a user record auth needs.
type Account struct {
	ID           int64
	Email        string
	FirstName    string
	Role         string
	PasswordHash string
	Active       bool
}

// SessionRecord is stored in Redis for the lifetime of a token.
type SessionRecord struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	FirstName string    `json:"first_name"`
	Role      string    `json:"role"`
}

// CookieName is the HTTP cookie carrying the access token.
const CookieName = "access_token"
