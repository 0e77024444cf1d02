package publicid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	exists bool
	err    error
	calls  int
	seen   []string
}

func (o *stubOracle) PublicIDExists(_ context.Context, publicID string) (bool, error) {
	o.calls++
	o.seen = append(o.seen, publicID)
	return o.exists, o.err
}

func TestAllocator(t *testing.T) {
	t.Run("returns first candidate the oracle reports unused", func(t *testing.T) {
		oracle := &stubOracle{exists: false}
		alloc := NewAllocator(oracle)

		id, err := alloc.Allocate(context.Background())
		require.NoError(t, err)
		assert.Len(t, id, Length)
		assert.Equal(t, 1, oracle.calls)
		assert.Equal(t, []string{id}, oracle.seen)
	})

	t.Run("fails after exactly ten attempts when every candidate is taken", func(t *testing.T) {
		oracle := &stubOracle{exists: true}
		alloc := NewAllocator(oracle)

		_, err := alloc.Allocate(context.Background())
		require.ErrorIs(t, err, ErrAllocationExhausted)
		assert.Equal(t, 10, oracle.calls)
	})

	t.Run("propagates oracle failures without retrying", func(t *testing.T) {
		oracleErr := errors.New("store unavailable")
		oracle := &stubOracle{err: oracleErr}
		alloc := NewAllocator(oracle)

		_, err := alloc.Allocate(context.Background())
		require.ErrorIs(t, err, oracleErr)
		assert.Equal(t, 1, oracle.calls)
	})
}
