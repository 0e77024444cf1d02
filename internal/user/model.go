package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrAlreadyRegistered = errors.New("user record already exists for this account")
	// ErrDuplicatePublicID means the unique index rejected the chosen public
	// identifier: another writer claimed it between the uniqueness check and
	// the insert. Allocating again is expected to succeed.
	ErrDuplicatePublicID = errors.New("public identifier already taken")
)

// User is a committed registration. A record exists for a provider account
// if and only if that account finished email verification and commit.
type User struct {
	ProviderUserID string    `json:"uid"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	PublicID       string    `json:"userId"`
	CreatedAt      time.Time `json:"created_at"`
	Following      []string  `json:"following"`
	Followers      []string  `json:"followers"`
}

// Store is the durable document store for user records. Create must be an
// insert-if-absent on the public identifier: success is itself the proof of
// uniqueness, so no window exists between checking and claiming an id.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByProviderID(ctx context.Context, providerUserID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	PublicIDExists(ctx context.Context, publicID string) (bool, error)
}
