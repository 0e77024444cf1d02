package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestTokenIssuer(t *testing.T) {
	t.Run("rejects keys that are not 32 bytes", func(t *testing.T) {
		_, err := NewTokenIssuer([]byte("short"))
		require.Error(t, err)
	})

	t.Run("issued token verifies with its claims", func(t *testing.T) {
		issuer, err := NewTokenIssuer(testKey())
		require.NoError(t, err)

		userID := uuid.New()
		token, err := issuer.Issue(userID, "alice@example.com", time.Minute)
		require.NoError(t, err)

		claims, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt, 5*time.Second)
	})

	t.Run("tampered token fails verification", func(t *testing.T) {
		issuer, err := NewTokenIssuer(testKey())
		require.NoError(t, err)

		token, err := issuer.Issue(uuid.New(), "alice@example.com", time.Minute)
		require.NoError(t, err)

		_, err = issuer.Verify(token + "x")
		require.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("token from another key fails verification", func(t *testing.T) {
		issuer, err := NewTokenIssuer(testKey())
		require.NoError(t, err)
		other, err := NewTokenIssuer([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)

		token, err := other.Issue(uuid.New(), "alice@example.com", time.Minute)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		require.Error(t, err)
	})
}
