package listingproc

import (
	"context"
	"sync"

	"github.com/gabapcia/listingwatch/internal/pkg/types"
)

// ProcessedLedger is the deduplication gate: a set of transaction hashes
// already notified or skipped. A hash enters the ledger at most once per
// scan pass and is never removed; a transaction already in the ledger is
// never re-inspected or re-notified.
//
// Implementations may be durable (e.g. Redis) for multi-instance
// deployments; the default is memory-resident and rebuilt from nothing on
// every restart, so notifications may repeat after a restart.
type ProcessedLedger interface {
	// Seen reports whether the transaction hash was already processed.
	Seen(ctx context.Context, txHash string) (bool, error)

	// MarkProcessed records the transaction hash as processed.
	MarkProcessed(ctx context.Context, txHash string) error
}

// memoryLedger is the in-memory ProcessedLedger. It grows monotonically for
// the process lifetime; transaction hash volume per run is bounded enough
// that no eviction is attempted.
type memoryLedger struct {
	mu   sync.Mutex
	seen types.Set[string]
}

var _ ProcessedLedger = (*memoryLedger)(nil)

// NewMemoryLedger creates an empty in-memory processed ledger.
func NewMemoryLedger() *memoryLedger {
	return &memoryLedger{
		seen: types.NewSet[string](),
	}
}

// Seen implements ProcessedLedger.
func (l *memoryLedger) Seen(ctx context.Context, txHash string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.seen.Has(txHash), nil
}

// MarkProcessed implements ProcessedLedger.
func (l *memoryLedger) MarkProcessed(ctx context.Context, txHash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen.Add(txHash)
	return nil
}
