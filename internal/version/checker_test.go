package version

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubble-app/identity-api/internal/logging"
)

func TestChecker(t *testing.T) {
	logger := logging.NewLogger(true)

	t.Run("matching published version reports a match", func(t *testing.T) {
		source := NewMemorySource("0.0.20")
		checker := NewChecker("0.0.20", source, logger)
		require.NoError(t, checker.Start(context.Background()))
		defer checker.Stop()

		stat := checker.Stat()
		assert.True(t, stat.Match)
		assert.Equal(t, "0.0.20", stat.Current)
	})

	t.Run("empty channel value falls back to the preset", func(t *testing.T) {
		source := NewMemorySource("")
		checker := NewChecker("0.0.20", source, logger)
		require.NoError(t, checker.Start(context.Background()))
		defer checker.Stop()

		assert.True(t, checker.Stat().Match)
	})

	t.Run("published change triggers the mismatch callback", func(t *testing.T) {
		source := NewMemorySource("0.0.20")
		checker := NewChecker("0.0.20", source, logger)

		var gotCurrent, gotRequired string
		checker.OnMismatch(func(current, required string) {
			gotCurrent = current
			gotRequired = required
		})
		require.NoError(t, checker.Start(context.Background()))
		defer checker.Stop()

		source.Publish("0.0.21")

		stat := checker.Stat()
		assert.False(t, stat.Match)
		assert.Equal(t, "0.0.21", stat.Current)
		assert.Equal(t, "0.0.21", gotCurrent)
		assert.Equal(t, "0.0.20", gotRequired)
	})

	t.Run("stop ends the subscription", func(t *testing.T) {
		source := NewMemorySource("0.0.20")
		checker := NewChecker("0.0.20", source, logger)
		require.NoError(t, checker.Start(context.Background()))

		checker.Stop()
		source.Publish("9.9.9")

		assert.True(t, checker.Stat().Match)
	})
}
