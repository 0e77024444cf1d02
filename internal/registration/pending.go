// Package registration implements the two-phase registration protocol:
// credential creation stages profile data, email verification happens out of
// band, and commit writes the durable user record with a freshly allocated
// public identifier.
package registration

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoPendingRegistration means commit was invoked without a prior
	// begin, or the staged data was already consumed. Caller misuse, not a
	// recoverable state.
	ErrNoPendingRegistration = errors.New("no pending registration data found")

	ErrEmailNotVerified = errors.New("email not verified, registration cannot be committed")

	// ErrStagingNotCleared means the user record was written but the staged
	// data could not be removed. Commit is not safely retryable at this
	// point; the condition must be reported, not auto-retried.
	ErrStagingNotCleared = errors.New("user record written but staged registration not cleared")

	ErrUsernameRequired = errors.New("username is required")
)

// PendingRegistration is profile data staged between credential creation and
// commit. CredentialRef is an opaque handle to the provider credential;
// raw passwords are never staged.
type PendingRegistration struct {
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	ProviderUserID string    `json:"uid"`
	CredentialRef  string    `json:"credential_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

// StagingStore holds unconfirmed registrations keyed by provider user id, so
// overlapping registration attempts for different accounts never clobber
// each other. Entries live until commit consumes them or they are explicitly
// discarded; there is no TTL.
type StagingStore interface {
	Put(ctx context.Context, reg PendingRegistration) error
	Get(ctx context.Context, providerUserID string) (PendingRegistration, error)
	Remove(ctx context.Context, providerUserID string) error
}
