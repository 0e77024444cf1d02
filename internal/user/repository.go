package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/hubble-app/identity-api/internal/database"
)

// Repository handles user record persistence in Postgres
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user record. The unique index on public_id makes the
// insert the atomic claim of the identifier; a losing writer gets
// ErrDuplicatePublicID instead of silently sharing the id.
func (r *Repository) Create(ctx context.Context, u *User) error {
	dbUser := &database.User{
		ProviderUserID: u.ProviderUserID,
		Email:          u.Email,
		Username:       u.Username,
		PublicID:       u.PublicID,
		CreatedAt:      u.CreatedAt,
		Following:      u.Following,
		Followers:      u.Followers,
	}
	if dbUser.CreatedAt.IsZero() {
		dbUser.CreatedAt = time.Now()
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "users_public_id_key") {
			return ErrDuplicatePublicID
		}
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to create user record: %w", err)
	}

	u.CreatedAt = dbUser.CreatedAt
	return nil
}

// GetByProviderID retrieves a user record by the provider's account id
func (r *Repository) GetByProviderID(ctx context.Context, providerUserID string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("provider_user_id = ?", providerUserID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by provider id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user record by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// PublicIDExists reports whether any record holds the given public
// identifier. Keyed on public_id only; provider id and email lookups go
// through the Get methods.
func (r *Repository) PublicIDExists(ctx context.Context, publicID string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("public_id = ?", publicID).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check public id: %w", err)
	}

	return count > 0, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ProviderUserID: dbu.ProviderUserID,
		Email:          dbu.Email,
		Username:       dbu.Username,
		PublicID:       dbu.PublicID,
		CreatedAt:      dbu.CreatedAt,
		Following:      dbu.Following,
		Followers:      dbu.Followers,
	}
}
