package identity

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// SessionClaims are the claims carried inside a session token
type SessionClaims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer creates and validates session tokens.
// Uses PASETO v4.local (symmetric encryption with XChaCha20-Poly1305).
type TokenIssuer struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewTokenIssuer(symmetricKey []byte) (*TokenIssuer, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &TokenIssuer{symmetricKey: key}, nil
}

// Issue generates a new session token with the given claims and duration
func (s *TokenIssuer) Issue(userID uuid.UUID, email string, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetString("user_id", userID.String())
	token.SetString("email", email)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify validates a session token and returns the claims
func (s *TokenIssuer) Verify(tokenStr string) (*SessionClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidSessionToken
	}

	userID, err := token.GetString("user_id")
	if err != nil {
		return nil, ErrInvalidSessionToken
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrInvalidSessionToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidSessionToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidSessionToken
	}

	return &SessionClaims{
		UserID:    userID,
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
