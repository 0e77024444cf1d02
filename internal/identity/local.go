package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/hubble-app/identity-api/internal/logging"
)

// EmailSender delivers verification links out of band.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
}

// LocalProvider is the built-in identity provider: credentials in the
// credential store, sessions as PASETO tokens backed by a revocable
// registry, verification links over email.
type LocalProvider struct {
	creds           CredentialStore
	sessions        SessionStore
	tokens          *TokenIssuer
	email           EmailSender
	logger          *logging.Logger
	sessionTTL      time.Duration
	verificationTTL time.Duration

	listeners *sessionListeners
}

func NewLocalProvider(
	creds CredentialStore,
	sessions SessionStore,
	tokens *TokenIssuer,
	email EmailSender,
	logger *logging.Logger,
	sessionTTL time.Duration,
	verificationTTL time.Duration,
) *LocalProvider {
	return &LocalProvider{
		creds:           creds,
		sessions:        sessions,
		tokens:          tokens,
		email:           email,
		logger:          logger,
		sessionTTL:      sessionTTL,
		verificationTTL: verificationTTL,
		listeners:       newSessionListeners(),
	}
}

// CreateAccount validates the credentials, stores the account unverified and
// sends the verification link asynchronously. The account is usable for
// password checks immediately; only the EmailVerified flag waits on the link.
func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (Account, error) {
	if email == "" {
		return Account{}, ErrEmailRequired
	}
	if len(email) > 254 {
		return Account{}, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, ErrInvalidEmailFormat
	}
	if password == "" {
		return Account{}, ErrPasswordRequired
	}
	if len(password) < 8 {
		return Account{}, ErrPasswordTooShort
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := generateRandomToken()
	if err != nil {
		return Account{}, fmt.Errorf("failed to generate verification token: %w", err)
	}

	cred, err := p.creds.Create(ctx, email, passwordHash, verificationToken)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return Account{}, ErrDuplicateEmail
		}
		return Account{}, fmt.Errorf("failed to create credential: %w", err)
	}

	// Send verification email in a goroutine (non-blocking). The account can
	// request a new link later if delivery fails.
	go func() {
		emailCtx := context.Background()
		if err := p.email.SendVerificationEmail(emailCtx, email, verificationToken); err != nil {
			p.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return Account{
		UserID:        cred.ID.String(),
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified,
		CreatedAt:     cred.CreatedAt,
	}, nil
}

// Authenticate checks the password and issues a session. A session is issued
// even when the email is unverified; gating on the verification flag is the
// caller's responsibility.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to get credential: %w", err)
	}

	if !verifyPassword(cred.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}

	token, err := p.tokens.Issue(cred.ID, cred.Email, p.sessionTTL)
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	now := time.Now()
	record := SessionRecord{
		UserID:    cred.ID.String(),
		Email:     cred.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(p.sessionTTL),
	}
	if err := p.sessions.Put(ctx, hashToken(token), record, p.sessionTTL); err != nil {
		return Session{}, fmt.Errorf("failed to register session: %w", err)
	}

	p.listeners.emit(SessionEvent{State: SessionSignedIn, UserID: record.UserID})

	return Session{
		Token:         token,
		UserID:        record.UserID,
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified,
		IssuedAt:      record.IssuedAt,
		ExpiresAt:     record.ExpiresAt,
	}, nil
}

// LookupAccount returns the provider's current view of an account
func (p *LocalProvider) LookupAccount(ctx context.Context, userID string) (Account, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}

	cred, err := p.creds.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}

	return Account{
		UserID:        cred.ID.String(),
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified,
		CreatedAt:     cred.CreatedAt,
	}, nil
}

// ValidateSession checks the token claims and that the session was not
// revoked in the registry.
func (p *LocalProvider) ValidateSession(ctx context.Context, token string) (Session, error) {
	claims, err := p.tokens.Verify(token)
	if err != nil {
		return Session{}, err
	}

	record, err := p.sessions.Get(ctx, hashToken(token))
	if err != nil {
		return Session{}, err
	}

	id, err := uuid.Parse(record.UserID)
	if err != nil {
		return Session{}, ErrInvalidSessionToken
	}
	cred, err := p.creds.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:         token,
		UserID:        record.UserID,
		Email:         claims.Email,
		EmailVerified: cred.EmailVerified,
		IssuedAt:      claims.IssuedAt,
		ExpiresAt:     claims.ExpiresAt,
	}, nil
}

// RevokeSession deletes the registry entry so the token stops validating
// immediately, even though it has not expired.
func (p *LocalProvider) RevokeSession(ctx context.Context, token string) error {
	hash := hashToken(token)

	record, err := p.sessions.Get(ctx, hash)
	if err != nil {
		return err
	}

	if err := p.sessions.Delete(ctx, hash); err != nil {
		return err
	}

	p.listeners.emit(SessionEvent{State: SessionSignedOut, UserID: record.UserID})
	return nil
}

// OnSessionChange registers fn for session transitions and delivers the
// current state immediately. The returned func unsubscribes.
func (p *LocalProvider) OnSessionChange(fn func(SessionEvent)) func() {
	return p.listeners.subscribe(fn)
}

// VerifyEmail consumes a verification link token. This is the endpoint the
// emailed link points at, not part of the Provider interface.
func (p *LocalProvider) VerifyEmail(ctx context.Context, token string) error {
	cred, err := p.creds.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Token not found among unverified accounts - check if it was already used
			alreadyVerified, checkErr := p.creds.TokenAlreadyUsed(ctx, token)
			if checkErr == nil && alreadyVerified {
				return ErrEmailAlreadyVerified
			}
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("failed to find credential by token: %w", err)
	}

	if cred.VerificationSentAt == nil {
		return ErrVerificationExpired
	}
	if time.Now().After(cred.VerificationSentAt.Add(p.verificationTTL)) {
		return ErrVerificationExpired
	}

	if err := p.creds.MarkVerified(ctx, cred.ID); err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return nil
}
