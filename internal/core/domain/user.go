package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrBackendUnavailable = errors.New("auth backend unavailable")
)

// User is the account returned by the auth backend's "get current user" call.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Credentials are the validated email/password pair of a single submit.
type Credentials struct {
	Email    string
	Password string
}

// Session is a backend session issued by a successful login. The secret is
// what authorises later calls on behalf of the user and never leaves the server.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Account is a locally stored user with its password hash. Only the local
// auth backend deals in accounts; everything else sees User.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User strips the credential material from an account.
func (a *Account) User() *User {
	return &User{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		EmailVerified: true,
		CreatedAt:     a.CreatedAt,
	}
}
