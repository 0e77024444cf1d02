package version

import (
	"context"
	"sync"
)

// MemorySource is an in-process config channel used in tests.
type MemorySource struct {
	mu      sync.Mutex
	value   string
	nextID  int
	watches map[int]func(string)
}

func NewMemorySource(value string) *MemorySource {
	return &MemorySource{
		value:   value,
		watches: make(map[int]func(string)),
	}
}

// Publish sets the value and notifies watchers.
func (s *MemorySource) Publish(value string) {
	s.mu.Lock()
	s.value = value
	fns := make([]func(string), 0, len(s.watches))
	for _, fn := range s.watches {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

func (s *MemorySource) Current(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

func (s *MemorySource) Watch(_ context.Context, fn func(version string)) (func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watches[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watches, id)
		s.mu.Unlock()
	}, nil
}
