package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the durable record of a completed registration. Identity fields
// are written once at commit and never updated; only the relationship lists
// change afterwards.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ProviderUserID string    `bun:"provider_user_id,pk"`
	Email          string    `bun:"email,notnull,unique"`
	Username       string    `bun:"username,notnull"`
	PublicID       string    `bun:"public_id,notnull,unique"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	Following      []string  `bun:"following,array"`
	Followers      []string  `bun:"followers,array"`
}

// Credential is an identity-provider account: the password-checked half of
// an identity, independent of whether registration ever completed.
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`

	ID                 uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email              string     `bun:"email,notnull,unique"`
	PasswordHash       string     `bun:"password_hash,notnull"`
	EmailVerified      bool       `bun:"email_verified,notnull,default:false"`
	VerificationToken  *string    `bun:"verification_token"`
	VerificationSentAt *time.Time `bun:"verification_sent_at"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}
