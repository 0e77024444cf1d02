// Package session enforces the login-time invariants: a session is only
// handed to the caller once the email is verified and the registration was
// committed to a durable user record.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hubble-app/identity-api/internal/identity"
	"github.com/hubble-app/identity-api/internal/logging"
	"github.com/hubble-app/identity-api/internal/user"
)

var (
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrAccountNotCompleted = errors.New("account registration was not completed")
)

// AuthenticatedUser is a session that passed both gate checks.
type AuthenticatedUser struct {
	ProviderUserID string
	Email          string
	Username       string
	PublicID       string
	Token          string
	ExpiresAt      time.Time
}

// UserReader is the slice of the user store the gate needs.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Gate wraps the identity provider's authentication with the verification
// and completion checks.
type Gate struct {
	provider identity.Provider
	users    UserReader
	logger   *logging.Logger
}

func NewGate(provider identity.Provider, users UserReader, logger *logging.Logger) *Gate {
	return &Gate{
		provider: provider,
		users:    users,
		logger:   logger,
	}
}

// Login authenticates and gates the session. The provider issues a session
// token on a successful password check regardless of verification state, so
// a failed policy check must actively revoke that token: merely dropping it
// would leave backend access open to unverified accounts.
func (g *Gate) Login(ctx context.Context, email, password string) (*AuthenticatedUser, error) {
	sess, err := g.provider.Authenticate(ctx, email, password)
	if err != nil {
		// Provider failures (bad credentials, network) pass through unmodified.
		return nil, err
	}

	if !sess.EmailVerified {
		g.revoke(ctx, sess.Token)
		return nil, ErrEmailNotVerified
	}

	record, err := g.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Credential exists but commit never happened.
			g.revoke(ctx, sess.Token)
			return nil, ErrAccountNotCompleted
		}
		return nil, fmt.Errorf("failed to look up user record: %w", err)
	}

	return &AuthenticatedUser{
		ProviderUserID: sess.UserID,
		Email:          record.Email,
		Username:       record.Username,
		PublicID:       record.PublicID,
		Token:          sess.Token,
		ExpiresAt:      sess.ExpiresAt,
	}, nil
}

// Logout revokes the active provider session.
func (g *Gate) Logout(ctx context.Context, token string) error {
	return g.provider.RevokeSession(ctx, token)
}

// OnSessionChanged registers fn for provider session state transitions.
// Delivery is asynchronous and may fire immediately with the current state.
// The returned func unsubscribes.
func (g *Gate) OnSessionChanged(fn func(identity.SessionEvent)) func() {
	return g.provider.OnSessionChange(fn)
}

func (g *Gate) revoke(ctx context.Context, token string) {
	if err := g.provider.RevokeSession(ctx, token); err != nil {
		g.logger.Error("failed to revoke gated session", "error", err)
	}
}
