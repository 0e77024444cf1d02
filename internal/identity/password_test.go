package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	t.Run("hash verifies against the original password", func(t *testing.T) {
		hash, err := hashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
		assert.True(t, verifyPassword(hash, "correct horse battery staple"))
	})

	t.Run("hash rejects a different password", func(t *testing.T) {
		hash, err := hashPassword("password-one")
		require.NoError(t, err)
		assert.False(t, verifyPassword(hash, "password-two"))
	})

	t.Run("same password yields distinct hashes", func(t *testing.T) {
		first, err := hashPassword("repeatable")
		require.NoError(t, err)
		second, err := hashPassword("repeatable")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hash never verifies", func(t *testing.T) {
		assert.False(t, verifyPassword("not-a-hash", "anything"))
		assert.False(t, verifyPassword("$argon2id$v=19$garbage", "anything"))
	})
}

func TestHashToken(t *testing.T) {
	a := hashToken("token-a")
	b := hashToken("token-b")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, hashToken("token-a"))
}
