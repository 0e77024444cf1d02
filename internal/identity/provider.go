// Package identity defines the identity-provider boundary: credential
// creation, password authentication, email verification and session
// lifecycle. The registration and session packages depend only on the
// Provider interface; LocalProvider is the shipped implementation.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailRequired            = errors.New("email is required")
	ErrPasswordRequired         = errors.New("password is required")
	ErrPasswordTooShort         = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat       = errors.New("invalid email format")
	ErrDuplicateEmail           = errors.New("email already exists")
	ErrAccountNotFound          = errors.New("provider account not found")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrVerificationExpired      = errors.New("verification token has expired")
	ErrEmailAlreadyVerified     = errors.New("email already verified")
	ErrSessionNotFound          = errors.New("session not found or revoked")
	ErrInvalidSessionToken      = errors.New("invalid session token")
	ErrSessionExpired           = errors.New("session has expired")
)

// Account is the provider's view of a credential: its internal id and
// whether the email behind it has been proven.
type Account struct {
	UserID        string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// Session is a live provider session. EmailVerified is a snapshot taken at
// authentication time; the provider issues sessions on a successful password
// check regardless of verification state.
type Session struct {
	Token         string
	UserID        string
	Email         string
	EmailVerified bool
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// SessionState is the signed-in/signed-out side of a session transition.
type SessionState string

const (
	SessionSignedIn  SessionState = "signed_in"
	SessionSignedOut SessionState = "signed_out"
)

// SessionEvent describes one session state transition.
type SessionEvent struct {
	State  SessionState
	UserID string
}

// Provider is the external identity provider contract. Email verification
// link issuance and consumption happen out of band; callers only observe the
// EmailVerified flag.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (Account, error)
	Authenticate(ctx context.Context, email, password string) (Session, error)
	LookupAccount(ctx context.Context, userID string) (Account, error)
	ValidateSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string) error
	// OnSessionChange registers fn for session transitions. Delivery is
	// asynchronous and fn may fire immediately with the current state.
	// The returned func unsubscribes.
	OnSessionChange(fn func(SessionEvent)) func()
}
