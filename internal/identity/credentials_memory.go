package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCredentialStore keeps provider accounts in process memory for
// tests and lightweight wiring.
type InMemoryCredentialStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Credential
	byEmail map[string]uuid.UUID
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{
		byID:    make(map[uuid.UUID]*Credential),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryCredentialStore) Create(_ context.Context, email, passwordHash, verificationToken string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}

	now := time.Now()
	token := verificationToken
	cred := &Credential{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       passwordHash,
		EmailVerified:      false,
		VerificationToken:  &token,
		VerificationSentAt: &now,
		CreatedAt:          now,
	}

	s.byID[cred.ID] = cred
	s.byEmail[email] = cred.ID

	copied := *cred
	return &copied, nil
}

func (s *InMemoryCredentialStore) GetByEmail(_ context.Context, email string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

func (s *InMemoryCredentialStore) GetByID(_ context.Context, id uuid.UUID) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *cred
	return &copied, nil
}

func (s *InMemoryCredentialStore) GetByVerificationToken(_ context.Context, token string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cred := range s.byID {
		if cred.VerificationToken != nil && *cred.VerificationToken == token && !cred.EmailVerified {
			copied := *cred
			return &copied, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *InMemoryCredentialStore) TokenAlreadyUsed(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cred := range s.byID {
		if cred.VerificationToken != nil && *cred.VerificationToken == token && cred.EmailVerified {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryCredentialStore) MarkVerified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	cred.EmailVerified = true
	return nil
}
