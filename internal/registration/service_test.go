package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/hubble-app/identity-api/internal/identity"
	"github.com/hubble-app/identity-api/internal/logging"
	"github.com/hubble-app/identity-api/internal/publicid"
	"github.com/hubble-app/identity-api/internal/user"
)

type recordingEmailSender struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newRecordingEmailSender() *recordingEmailSender {
	return &recordingEmailSender{tokens: make(map[string]string)}
}

func (r *recordingEmailSender) SendVerificationEmail(_ context.Context, toEmail, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[toEmail] = token
	return nil
}

func (r *recordingEmailSender) tokenFor(email string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[email]
	return token, ok
}

// alwaysTakenStore wraps a user store so the uniqueness oracle reports every
// candidate as taken.
type alwaysTakenStore struct {
	user.Store
}

func (alwaysTakenStore) PublicIDExists(context.Context, string) (bool, error) {
	return true, nil
}

// failingRemoveStaging wraps a staging store whose Remove always fails.
type failingRemoveStaging struct {
	StagingStore
}

func (failingRemoveStaging) Remove(context.Context, string) error {
	return errors.New("staging store unavailable")
}

type CoordinatorSuite struct {
	suite.Suite
	provider *identity.LocalProvider
	users    *user.InMemoryStore
	staging  *InMemoryStagingStore
	emails   *recordingEmailSender
	coord    *Coordinator
}

func (s *CoordinatorSuite) SetupTest() {
	issuer, err := identity.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"))
	s.Require().NoError(err)

	logger := logging.NewLogger(true)
	s.emails = newRecordingEmailSender()
	s.provider = identity.NewLocalProvider(
		identity.NewInMemoryCredentialStore(),
		identity.NewInMemorySessionStore(),
		issuer,
		s.emails,
		logger,
		time.Hour,
		24*time.Hour,
	)
	s.users = user.NewInMemoryStore()
	s.staging = NewInMemoryStagingStore()
	s.coord = NewCoordinator(s.provider, s.users, s.staging, publicid.NewAllocator(s.users), logger)
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

// verifyAccount follows the emailed verification link for the given address.
func (s *CoordinatorSuite) verifyAccount(email string) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if token, ok := s.emails.tokenFor(email); ok {
			s.Require().NoError(s.provider.VerifyEmail(context.Background(), token))
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.FailNow("verification email never sent for " + email)
}

func (s *CoordinatorSuite) TestBegin() {
	ctx := context.Background()

	s.Run("stages profile data after credential creation", func() {
		account, err := s.coord.Begin(ctx, "a@x.com", "p4ssw0rd!", "alice")
		s.Require().NoError(err)
		s.NotEmpty(account.UserID)
		s.False(account.EmailVerified)

		reg, err := s.staging.Get(ctx, account.UserID)
		s.Require().NoError(err)
		s.Equal("a@x.com", reg.Email)
		s.Equal("alice", reg.Username)
		s.Equal(account.UserID, reg.ProviderUserID)
		s.False(reg.CreatedAt.IsZero())
	})

	s.Run("propagates provider errors unmodified", func() {
		_, err := s.coord.Begin(ctx, "dup@x.com", "p4ssw0rd!", "first")
		s.Require().NoError(err)

		_, err = s.coord.Begin(ctx, "dup@x.com", "p4ssw0rd!", "second")
		s.Require().ErrorIs(err, identity.ErrDuplicateEmail)

		_, err = s.coord.Begin(ctx, "weak@x.com", "short", "weak")
		s.Require().ErrorIs(err, identity.ErrPasswordTooShort)
	})

	s.Run("requires a username", func() {
		_, err := s.coord.Begin(ctx, "nouser@x.com", "p4ssw0rd!", "")
		s.Require().ErrorIs(err, ErrUsernameRequired)
	})

	s.Run("overlapping registrations stage independently", func() {
		first, err := s.coord.Begin(ctx, "one@x.com", "p4ssw0rd!", "one")
		s.Require().NoError(err)
		second, err := s.coord.Begin(ctx, "two@x.com", "p4ssw0rd!", "two")
		s.Require().NoError(err)

		regOne, err := s.staging.Get(ctx, first.UserID)
		s.Require().NoError(err)
		s.Equal("one", regOne.Username)

		regTwo, err := s.staging.Get(ctx, second.UserID)
		s.Require().NoError(err)
		s.Equal("two", regTwo.Username)
	})
}

func (s *CoordinatorSuite) TestComplete() {
	ctx := context.Background()

	s.Run("commits a verified registration and consumes the staged data", func() {
		account, err := s.coord.Begin(ctx, "a@x.com", "p4ssw0rd!", "alice")
		s.Require().NoError(err)
		s.verifyAccount("a@x.com")

		uid, err := s.coord.Complete(ctx, account.UserID)
		s.Require().NoError(err)
		s.Equal(account.UserID, uid)

		record, err := s.users.GetByProviderID(ctx, uid)
		s.Require().NoError(err)
		s.Equal("a@x.com", record.Email)
		s.Equal("alice", record.Username)
		s.Len(record.PublicID, publicid.Length)
		s.Empty(record.Following)
		s.Empty(record.Followers)

		_, err = s.staging.Get(ctx, account.UserID)
		s.Require().ErrorIs(err, ErrNoPendingRegistration)
	})

	s.Run("fails without a prior begin and writes nothing", func() {
		_, err := s.coord.Complete(ctx, "no-such-account")
		s.Require().ErrorIs(err, ErrNoPendingRegistration)
	})

	s.Run("second immediate completion fails because staging was consumed", func() {
		account, err := s.coord.Begin(ctx, "b@x.com", "p4ssw0rd!", "bob")
		s.Require().NoError(err)
		s.verifyAccount("b@x.com")

		_, err = s.coord.Complete(ctx, account.UserID)
		s.Require().NoError(err)

		_, err = s.coord.Complete(ctx, account.UserID)
		s.Require().ErrorIs(err, ErrNoPendingRegistration)
	})

	s.Run("refuses to commit an unverified account", func() {
		account, err := s.coord.Begin(ctx, "c@x.com", "p4ssw0rd!", "carol")
		s.Require().NoError(err)

		_, err = s.coord.Complete(ctx, account.UserID)
		s.Require().ErrorIs(err, ErrEmailNotVerified)

		// Staging survives so the commit can be retried after verification.
		_, err = s.staging.Get(ctx, account.UserID)
		s.Require().NoError(err)
	})

	s.Run("surfaces allocation exhaustion and leaves staging intact", func() {
		account, err := s.coord.Begin(ctx, "d@x.com", "p4ssw0rd!", "dave")
		s.Require().NoError(err)
		s.verifyAccount("d@x.com")

		taken := alwaysTakenStore{Store: s.users}
		coord := NewCoordinator(s.provider, taken, s.staging, publicid.NewAllocator(taken), logging.NewLogger(true))

		_, err = coord.Complete(ctx, account.UserID)
		s.Require().ErrorIs(err, publicid.ErrAllocationExhausted)

		_, err = s.staging.Get(ctx, account.UserID)
		s.Require().NoError(err)

		// Retrying against the real store succeeds: regeneration is cheap.
		_, err = s.coord.Complete(ctx, account.UserID)
		s.Require().NoError(err)
	})

	s.Run("reports a failed staging clear as fatal", func() {
		account, err := s.coord.Begin(ctx, "e@x.com", "p4ssw0rd!", "eve")
		s.Require().NoError(err)
		s.verifyAccount("e@x.com")

		coord := NewCoordinator(
			s.provider,
			s.users,
			failingRemoveStaging{StagingStore: s.staging},
			publicid.NewAllocator(s.users),
			logging.NewLogger(true),
		)

		_, err = coord.Complete(ctx, account.UserID)
		s.Require().ErrorIs(err, ErrStagingNotCleared)

		// The record write already happened; the partial state is visible.
		_, err = s.users.GetByProviderID(ctx, account.UserID)
		s.Require().NoError(err)
	})
}

func (s *CoordinatorSuite) TestDiscard() {
	ctx := context.Background()

	account, err := s.coord.Begin(ctx, "gone@x.com", "p4ssw0rd!", "gone")
	s.Require().NoError(err)

	s.Require().NoError(s.coord.Discard(ctx, account.UserID))

	_, err = s.coord.Complete(ctx, account.UserID)
	s.Require().ErrorIs(err, ErrNoPendingRegistration)
}
