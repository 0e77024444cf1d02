package registration

import (
	"context"
	"sync"
)

// InMemoryStagingStore is the in-process staging area used in tests.
type InMemoryStagingStore struct {
	mu      sync.RWMutex
	pending map[string]PendingRegistration
}

func NewInMemoryStagingStore() *InMemoryStagingStore {
	return &InMemoryStagingStore{pending: make(map[string]PendingRegistration)}
}

func (s *InMemoryStagingStore) Put(_ context.Context, reg PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[reg.ProviderUserID] = reg
	return nil
}

func (s *InMemoryStagingStore) Get(_ context.Context, providerUserID string) (PendingRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.pending[providerUserID]
	if !ok {
		return PendingRegistration{}, ErrNoPendingRegistration
	}
	return reg, nil
}

func (s *InMemoryStagingStore) Remove(_ context.Context, providerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[providerUserID]; !ok {
		return ErrNoPendingRegistration
	}
	delete(s.pending, providerUserID)
	return nil
}
