package user

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps user records in process memory. It mirrors the
// Repository contract, including the insert-if-absent claim of public
// identifiers, and backs tests and lightweight wiring.
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]*User
	byEmail   map[string]*User
	publicIDs map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[string]*User),
		byEmail:   make(map[string]*User),
		publicIDs: make(map[string]bool),
	}
}

func (s *InMemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check-and-claim under one lock, matching the database's unique index.
	if s.publicIDs[u.PublicID] {
		return ErrDuplicatePublicID
	}
	if _, ok := s.byID[u.ProviderUserID]; ok {
		return ErrAlreadyRegistered
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrAlreadyRegistered
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	stored := *u
	s.byID[u.ProviderUserID] = &stored
	s.byEmail[u.Email] = &stored
	s.publicIDs[u.PublicID] = true
	return nil
}

func (s *InMemoryStore) GetByProviderID(_ context.Context, providerUserID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.byID[providerUserID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) PublicIDExists(_ context.Context, publicID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.publicIDs[publicID], nil
}
