package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/hubble-app/identity-api/internal/database"
)

// Credential is a provider account: email, password hash and verification
// state. It exists independently of the durable user record.
type Credential struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string
	EmailVerified      bool
	VerificationToken  *string
	VerificationSentAt *time.Time
	CreatedAt          time.Time
}

// CredentialStore persists provider accounts.
type CredentialStore interface {
	Create(ctx context.Context, email, passwordHash, verificationToken string) (*Credential, error)
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	GetByVerificationToken(ctx context.Context, token string) (*Credential, error)
	TokenAlreadyUsed(ctx context.Context, token string) (bool, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

// CredentialRepository is the Postgres-backed credential store
type CredentialRepository struct {
	db *bun.DB
}

func NewCredentialRepository(db *bun.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new provider account
func (r *CredentialRepository) Create(ctx context.Context, email, passwordHash, verificationToken string) (*Credential, error) {
	now := time.Now()
	dbCred := &database.Credential{
		Email:              email,
		PasswordHash:       passwordHash,
		EmailVerified:      false,
		VerificationToken:  &verificationToken,
		VerificationSentAt: &now,
	}

	_, err := r.db.NewInsert().
		Model(dbCred).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return mapDBCredentialToModel(dbCred), nil
}

// GetByEmail retrieves a provider account by email
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	dbCred := new(database.Credential)
	err := r.db.NewSelect().
		Model(dbCred).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get credential by email: %w", err)
	}

	return mapDBCredentialToModel(dbCred), nil
}

// GetByID retrieves a provider account by id
func (r *CredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	dbCred := new(database.Credential)
	err := r.db.NewSelect().
		Model(dbCred).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get credential by id: %w", err)
	}

	return mapDBCredentialToModel(dbCred), nil
}

// GetByVerificationToken retrieves an unverified account by its token
func (r *CredentialRepository) GetByVerificationToken(ctx context.Context, token string) (*Credential, error) {
	dbCred := new(database.Credential)
	err := r.db.NewSelect().
		Model(dbCred).
		Where("verification_token = ?", token).
		Where("email_verified = ?", false).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get credential by verification token: %w", err)
	}

	return mapDBCredentialToModel(dbCred), nil
}

// TokenAlreadyUsed checks whether a verification token already verified an email
func (r *CredentialRepository) TokenAlreadyUsed(ctx context.Context, token string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.Credential)(nil)).
		Where("verification_token = ?", token).
		Where("email_verified = ?", true).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check if token was used: %w", err)
	}

	return count > 0, nil
}

// MarkVerified marks an account's email as verified, keeping the token so a
// repeated click on the same link reports "already verified" instead of
// "invalid token".
func (r *CredentialRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.Credential)(nil)).
		Set("email_verified = ?", true).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// mapDBCredentialToModel converts database model to domain model
func mapDBCredentialToModel(dbc *database.Credential) *Credential {
	return &Credential{
		ID:                 dbc.ID,
		Email:              dbc.Email,
		PasswordHash:       dbc.PasswordHash,
		EmailVerified:      dbc.EmailVerified,
		VerificationToken:  dbc.VerificationToken,
		VerificationSentAt: dbc.VerificationSentAt,
		CreatedAt:          dbc.CreatedAt,
	}
}
