package identity

import (
	"context"
	"sync"
	"time"
)

// InMemorySessionStore is the in-process session registry used in tests.
// Expiry is checked lazily on Get instead of with a sweeper.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionRecord
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]SessionRecord)}
}

func (s *InMemorySessionStore) Put(_ context.Context, tokenHash string, record SessionRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenHash] = record
	return nil
}

func (s *InMemorySessionStore) Get(_ context.Context, tokenHash string) (SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.sessions[tokenHash]
	if !ok {
		return SessionRecord{}, ErrSessionNotFound
	}
	if time.Now().After(record.ExpiresAt) {
		return SessionRecord{}, ErrSessionNotFound
	}
	return record, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[tokenHash]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, tokenHash)
	return nil
}
