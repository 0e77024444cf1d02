package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) TestLookups() {
	s.Run("finds a stored record by provider id and by email", func() {
		u := &User{
			ProviderUserID: "acct-1",
			Email:          "alice@example.com",
			Username:       "alice",
			PublicID:       "A1B2C3D4E5F6",
			Following:      []string{},
			Followers:      []string{},
		}
		s.Require().NoError(s.store.Create(context.Background(), u))

		byID, err := s.store.GetByProviderID(context.Background(), "acct-1")
		s.Require().NoError(err)
		s.Equal("alice@example.com", byID.Email)

		byEmail, err := s.store.GetByEmail(context.Background(), "alice@example.com")
		s.Require().NoError(err)
		s.Equal("acct-1", byEmail.ProviderUserID)
	})

	s.Run("returns ErrNotFound for unknown keys", func() {
		_, err := s.store.GetByProviderID(context.Background(), "missing")
		s.Require().ErrorIs(err, ErrNotFound)

		_, err = s.store.GetByEmail(context.Background(), "missing@example.com")
		s.Require().ErrorIs(err, ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestPublicIDClaim() {
	s.Run("existence check reflects stored identifiers", func() {
		exists, err := s.store.PublicIDExists(context.Background(), "ZZZZZZZZZZZZ")
		s.Require().NoError(err)
		s.False(exists)

		u := &User{ProviderUserID: "acct-2", Email: "bob@example.com", Username: "bob", PublicID: "ZZZZZZZZZZZZ"}
		s.Require().NoError(s.store.Create(context.Background(), u))

		exists, err = s.store.PublicIDExists(context.Background(), "ZZZZZZZZZZZZ")
		s.Require().NoError(err)
		s.True(exists)
	})

	s.Run("second writer claiming the same public id is rejected", func() {
		first := &User{ProviderUserID: "acct-3", Email: "c@example.com", Username: "c", PublicID: "SAMEIDSAMEID"}
		s.Require().NoError(s.store.Create(context.Background(), first))

		second := &User{ProviderUserID: "acct-4", Email: "d@example.com", Username: "d", PublicID: "SAMEIDSAMEID"}
		err := s.store.Create(context.Background(), second)
		s.Require().ErrorIs(err, ErrDuplicatePublicID)
	})

	s.Run("re-registering the same account is rejected", func() {
		u := &User{ProviderUserID: "acct-5", Email: "e@example.com", Username: "e", PublicID: "IDFIVEIDFIVE"}
		s.Require().NoError(s.store.Create(context.Background(), u))

		again := &User{ProviderUserID: "acct-5", Email: "e2@example.com", Username: "e", PublicID: "IDSIXXIDSIXX"}
		err := s.store.Create(context.Background(), again)
		s.Require().ErrorIs(err, ErrAlreadyRegistered)
	})
}
