package identity

import (
	"context"
	"time"
)

// SessionRecord is the registry entry for a live session. Tokens are
// self-describing; the registry exists so revocation takes effect before the
// token expires.
type SessionRecord struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionStore is the revocable session registry, keyed by token hash.
type SessionStore interface {
	Put(ctx context.Context, tokenHash string, record SessionRecord, ttl time.Duration) error
	Get(ctx context.Context, tokenHash string) (SessionRecord, error)
	Delete(ctx context.Context, tokenHash string) error
}
