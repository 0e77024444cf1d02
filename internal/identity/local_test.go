package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/hubble-app/identity-api/internal/logging"
)

type captureEmailSender struct {
	mu     sync.Mutex
	sent   []string
	tokens map[string]string
}

func newCaptureEmailSender() *captureEmailSender {
	return &captureEmailSender{tokens: make(map[string]string)}
}

func (c *captureEmailSender) SendVerificationEmail(_ context.Context, toEmail, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, toEmail)
	c.tokens[toEmail] = token
	return nil
}

type LocalProviderSuite struct {
	suite.Suite
	provider *LocalProvider
	creds    *InMemoryCredentialStore
	emails   *captureEmailSender
}

func (s *LocalProviderSuite) SetupTest() {
	issuer, err := NewTokenIssuer(testKey())
	s.Require().NoError(err)

	s.creds = NewInMemoryCredentialStore()
	s.emails = newCaptureEmailSender()
	s.provider = NewLocalProvider(
		s.creds,
		NewInMemorySessionStore(),
		issuer,
		s.emails,
		logging.NewLogger(true),
		time.Hour,
		24*time.Hour,
	)
}

func TestLocalProviderSuite(t *testing.T) {
	suite.Run(t, new(LocalProviderSuite))
}

// verificationTokenFor waits for the async email delivery and returns the
// token it carried.
func (s *LocalProviderSuite) verificationTokenFor(email string) string {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.emails.mu.Lock()
		token, ok := s.emails.tokens[email]
		s.emails.mu.Unlock()
		if ok {
			return token
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.FailNow("verification email never sent for " + email)
	return ""
}

func (s *LocalProviderSuite) TestCreateAccount() {
	s.Run("creates an unverified account and emails a link", func() {
		acct, err := s.provider.CreateAccount(context.Background(), "new@example.com", "long enough password")
		s.Require().NoError(err)
		s.NotEmpty(acct.UserID)
		s.False(acct.EmailVerified)
		s.NotEmpty(s.verificationTokenFor("new@example.com"))
	})

	s.Run("rejects duplicate emails with the provider error unmodified", func() {
		_, err := s.provider.CreateAccount(context.Background(), "dup@example.com", "long enough password")
		s.Require().NoError(err)

		_, err = s.provider.CreateAccount(context.Background(), "dup@example.com", "another password!")
		s.Require().ErrorIs(err, ErrDuplicateEmail)
	})

	s.Run("validates inputs before touching the store", func() {
		_, err := s.provider.CreateAccount(context.Background(), "", "long enough password")
		s.Require().ErrorIs(err, ErrEmailRequired)

		_, err = s.provider.CreateAccount(context.Background(), "not-an-email", "long enough password")
		s.Require().ErrorIs(err, ErrInvalidEmailFormat)

		_, err = s.provider.CreateAccount(context.Background(), "a@example.com", "")
		s.Require().ErrorIs(err, ErrPasswordRequired)

		_, err = s.provider.CreateAccount(context.Background(), "a@example.com", "short")
		s.Require().ErrorIs(err, ErrPasswordTooShort)
	})
}

func (s *LocalProviderSuite) TestAuthenticate() {
	ctx := context.Background()
	_, err := s.provider.CreateAccount(ctx, "auth@example.com", "long enough password")
	s.Require().NoError(err)

	s.Run("issues a session on a correct password even when unverified", func() {
		sess, err := s.provider.Authenticate(ctx, "auth@example.com", "long enough password")
		s.Require().NoError(err)
		s.NotEmpty(sess.Token)
		s.False(sess.EmailVerified)

		validated, err := s.provider.ValidateSession(ctx, sess.Token)
		s.Require().NoError(err)
		s.Equal(sess.UserID, validated.UserID)
	})

	s.Run("rejects a wrong password", func() {
		_, err := s.provider.Authenticate(ctx, "auth@example.com", "wrong password!!")
		s.Require().ErrorIs(err, ErrInvalidCredentials)
	})

	s.Run("rejects an unknown email", func() {
		_, err := s.provider.Authenticate(ctx, "nobody@example.com", "long enough password")
		s.Require().ErrorIs(err, ErrInvalidCredentials)
	})
}

func (s *LocalProviderSuite) TestSessionRevocation() {
	ctx := context.Background()
	_, err := s.provider.CreateAccount(ctx, "revoke@example.com", "long enough password")
	s.Require().NoError(err)

	sess, err := s.provider.Authenticate(ctx, "revoke@example.com", "long enough password")
	s.Require().NoError(err)

	s.Require().NoError(s.provider.RevokeSession(ctx, sess.Token))

	// The token itself is still within its lifetime; only the registry entry
	// is gone.
	_, err = s.provider.ValidateSession(ctx, sess.Token)
	s.Require().ErrorIs(err, ErrSessionNotFound)

	err = s.provider.RevokeSession(ctx, sess.Token)
	s.Require().ErrorIs(err, ErrSessionNotFound)
}

func (s *LocalProviderSuite) TestVerifyEmail() {
	ctx := context.Background()

	s.Run("link token marks the account verified", func() {
		acct, err := s.provider.CreateAccount(ctx, "verify@example.com", "long enough password")
		s.Require().NoError(err)
		token := s.verificationTokenFor("verify@example.com")

		s.Require().NoError(s.provider.VerifyEmail(ctx, token))

		looked, err := s.provider.LookupAccount(ctx, acct.UserID)
		s.Require().NoError(err)
		s.True(looked.EmailVerified)
	})

	s.Run("reusing a consumed token reports already verified", func() {
		_, err := s.provider.CreateAccount(ctx, "twice@example.com", "long enough password")
		s.Require().NoError(err)
		token := s.verificationTokenFor("twice@example.com")

		s.Require().NoError(s.provider.VerifyEmail(ctx, token))
		s.Require().ErrorIs(s.provider.VerifyEmail(ctx, token), ErrEmailAlreadyVerified)
	})

	s.Run("unknown token is invalid", func() {
		s.Require().ErrorIs(s.provider.VerifyEmail(ctx, "no-such-token"), ErrInvalidVerificationToken)
	})
}

func (s *LocalProviderSuite) TestOnSessionChange() {
	ctx := context.Background()
	_, err := s.provider.CreateAccount(ctx, "events@example.com", "long enough password")
	s.Require().NoError(err)

	events := make(chan SessionEvent, 8)
	unsubscribe := s.provider.OnSessionChange(func(e SessionEvent) { events <- e })
	defer unsubscribe()

	// Initial delivery reflects the current (signed-out) state.
	select {
	case e := <-events:
		s.Equal(SessionSignedOut, e.State)
	case <-time.After(2 * time.Second):
		s.FailNow("no initial session event")
	}

	sess, err := s.provider.Authenticate(ctx, "events@example.com", "long enough password")
	s.Require().NoError(err)

	select {
	case e := <-events:
		s.Equal(SessionSignedIn, e.State)
		s.Equal(sess.UserID, e.UserID)
	case <-time.After(2 * time.Second):
		s.FailNow("no signed-in event")
	}

	s.Require().NoError(s.provider.RevokeSession(ctx, sess.Token))

	select {
	case e := <-events:
		s.Equal(SessionSignedOut, e.State)
	case <-time.After(2 * time.Second):
		s.FailNow("no signed-out event")
	}
}
