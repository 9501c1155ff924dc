package listingproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger(t *testing.T) {
	t.Run("unseen hash", func(t *testing.T) {
		ledger := NewMemoryLedger()

		seen, err := ledger.Seen(t.Context(), "tx-1")

		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("marked hash is seen", func(t *testing.T) {
		ledger := NewMemoryLedger()

		require.NoError(t, ledger.MarkProcessed(t.Context(), "tx-1"))

		seen, err := ledger.Seen(t.Context(), "tx-1")

		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("marking is idempotent", func(t *testing.T) {
		ledger := NewMemoryLedger()

		require.NoError(t, ledger.MarkProcessed(t.Context(), "tx-1"))
		require.NoError(t, ledger.MarkProcessed(t.Context(), "tx-1"))

		seen, err := ledger.Seen(t.Context(), "tx-1")

		require.NoError(t, err)
		assert.True(t, seen)
	})
}
