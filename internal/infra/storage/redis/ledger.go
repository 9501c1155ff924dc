package redis

import (
	"context"

	"github.com/gabapcia/listingwatch/internal/listingproc"
)

// processedSetKey is the Redis set holding every processed transaction
// hash. Entries are never evicted, matching the in-memory ledger semantics.
const processedSetKey = "listingwatch:processed"

// Seen reports whether the transaction hash is already in the processed set.
func (c *client) Seen(ctx context.Context, txHash string) (bool, error) {
	return c.conn.SIsMember(ctx, processedSetKey, txHash).Result()
}

// MarkProcessed adds the transaction hash to the processed set.
func (c *client) MarkProcessed(ctx context.Context, txHash string) error {
	return c.conn.SAdd(ctx, processedSetKey, txHash).Err()
}

// Ensure the client satisfies the ProcessedLedger interface at compile time.
var _ listingproc.ProcessedLedger = (*client)(nil)
