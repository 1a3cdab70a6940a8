// Package identity is the password based identity provider: accounts,
// session tokens, sign-out and password reset. Callers treat the user id it
// hands out as opaque.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrEmailInUse         = errors.New("identity: email already registered")
	ErrAccountNotFound    = errors.New("identity: account not found")
	ErrSignedOut          = errors.New("identity: session signed out")
	ErrInvalidToken       = errors.New("identity: invalid token")
	ErrResetExpired       = errors.New("identity: password reset expired")
	ErrWeakPassword       = errors.New("identity: password too short")
)

// MinPasswordLen is the shortest password accepted at sign-up and reset.
const MinPasswordLen = 6

// Principal is an authenticated identity.
type Principal struct {
	UID   string
	Email string
	Name  string
}

// Account is a stored credential.
type Account struct {
	UID          string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialStore persists accounts, reset tokens and revoked sessions.
type CredentialStore interface {
	// CreateAccount returns ErrEmailInUse when the email is taken.
	CreateAccount(ctx context.Context, a Account) error

	// AccountByEmail returns ErrAccountNotFound for unknown emails.
	AccountByEmail(ctx context.Context, email string) (Account, error)

	SetPasswordHash(ctx context.Context, email, hash string) error

	// SaveReset stores a reset token by fingerprint.
	SaveReset(ctx context.Context, fingerprint, email string, expiresAt time.Time) error

	// TakeReset deletes and returns a reset token. ErrInvalidToken if absent.
	TakeReset(ctx context.Context, fingerprint string) (email string, expiresAt time.Time, err error)

	// RevokeSession blocks a session id until expiresAt.
	RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error

	SessionRevoked(ctx context.Context, jti string) (bool, error)
}

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}
