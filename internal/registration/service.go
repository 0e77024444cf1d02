package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/hubble-app/identity-api/internal/identity"
	"github.com/hubble-app/identity-api/internal/logging"
	"github.com/hubble-app/identity-api/internal/publicid"
	"github.com/hubble-app/identity-api/internal/user"
)

// Coordinator drives a registration from credential creation through commit.
// Every collaborator is injected; the coordinator holds no client handles of
// its own.
type Coordinator struct {
	provider  identity.Provider
	users     user.Store
	staging   StagingStore
	allocator *publicid.Allocator
	logger    *logging.Logger
}

func NewCoordinator(
	provider identity.Provider,
	users user.Store,
	staging StagingStore,
	allocator *publicid.Allocator,
	logger *logging.Logger,
) *Coordinator {
	return &Coordinator{
		provider:  provider,
		users:     users,
		staging:   staging,
		allocator: allocator,
		logger:    logger,
	}
}

// Begin creates the provider credential and stages the profile data that
// Complete will later commit. Provider failures (duplicate email, weak
// password) propagate unmodified. If staging fails after the credential was
// created, the attempt is reported as failed: login against such an account
// surfaces as an uncompleted registration until the user retries.
func (c *Coordinator) Begin(ctx context.Context, email, password, username string) (identity.Account, error) {
	if username == "" {
		return identity.Account{}, ErrUsernameRequired
	}

	account, err := c.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return identity.Account{}, err
	}

	reg := PendingRegistration{
		Email:          email,
		Username:       username,
		ProviderUserID: account.UserID,
		CredentialRef:  account.UserID,
		CreatedAt:      time.Now(),
	}
	if err := c.staging.Put(ctx, reg); err != nil {
		c.logger.Error("credential created but staging failed",
			"provider_user_id", account.UserID,
			"error", err,
		)
		return identity.Account{}, fmt.Errorf("failed to stage registration: %w", err)
	}

	c.logger.Info("registration staged",
		"provider_user_id", account.UserID,
		"username", username,
	)

	return account, nil
}

// Complete commits a staged registration: it confirms the provider reports
// the email verified, allocates a public identifier, writes the durable user
// record and consumes the staged data. Returns the provider user id.
//
// The sequence is not transactional. Failures before the record write leave
// staging intact, so the whole commit is safely retryable up to that point.
// A failed staging clear after a successful record write is returned as
// ErrStagingNotCleared and must not be retried.
func (c *Coordinator) Complete(ctx context.Context, providerUserID string) (string, error) {
	reg, err := c.staging.Get(ctx, providerUserID)
	if err != nil {
		return "", err
	}

	// The verification precondition is machine-checked against the provider
	// rather than trusted to caller discipline: committing without a genuine
	// verification would create an unverified durable account.
	account, err := c.provider.LookupAccount(ctx, reg.ProviderUserID)
	if err != nil {
		return "", fmt.Errorf("failed to look up provider account: %w", err)
	}
	if !account.EmailVerified {
		return "", ErrEmailNotVerified
	}

	id, err := c.allocator.Allocate(ctx)
	if err != nil {
		return "", err
	}

	record := &user.User{
		ProviderUserID: reg.ProviderUserID,
		Email:          reg.Email,
		Username:       reg.Username,
		PublicID:       id,
		CreatedAt:      reg.CreatedAt,
		Following:      []string{},
		Followers:      []string{},
	}
	if err := c.users.Create(ctx, record); err != nil {
		// Staging stays intact in both cases so the commit can be retried
		// (duplicate id) or the conflict inspected (record already present).
		return "", fmt.Errorf("failed to write user record: %w", err)
	}

	if err := c.staging.Remove(ctx, reg.ProviderUserID); err != nil {
		c.logger.Error("user record written but staged data not cleared",
			"provider_user_id", reg.ProviderUserID,
			"error", err,
		)
		return "", fmt.Errorf("%w: %s", ErrStagingNotCleared, err)
	}

	c.logger.Info("registration committed",
		"provider_user_id", reg.ProviderUserID,
		"public_id", id,
	)

	return reg.ProviderUserID, nil
}

// Discard drops a staged registration without committing it.
func (c *Coordinator) Discard(ctx context.Context, providerUserID string) error {
	return c.staging.Remove(ctx, providerUserID)
}
