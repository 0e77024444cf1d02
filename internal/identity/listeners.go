package identity

import "sync"

// sessionListeners fans session events out to subscribers. Each subscriber
// has its own delivery goroutine, so a slow callback never blocks
// authentication and every subscriber observes transitions in order.
type sessionListeners struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan SessionEvent
	last   SessionEvent
}

func newSessionListeners() *sessionListeners {
	return &sessionListeners{
		subs: make(map[int]chan SessionEvent),
		last: SessionEvent{State: SessionSignedOut},
	}
}

// subscribe registers fn and immediately queues the most recent event so new
// subscribers observe the current state without waiting for the next
// transition. The returned func unsubscribes.
func (l *sessionListeners) subscribe(fn func(SessionEvent)) func() {
	ch := make(chan SessionEvent, 64)

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	ch <- l.last
	l.mu.Unlock()

	go func() {
		for event := range ch {
			fn(event)
		}
	}()

	return func() {
		l.mu.Lock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
		l.mu.Unlock()
	}
}

func (l *sessionListeners) emit(event SessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = event
	for _, ch := range l.subs {
		select {
		case ch <- event:
		default:
			// Drop rather than block when a subscriber stops draining.
		}
	}
}
