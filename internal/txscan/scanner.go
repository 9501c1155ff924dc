// Package txscan implements the incremental transaction scanner: it pages
// through an address's transaction history on the indexer, newest first,
// with a bounded number of pages per pass and a fixed cooldown whenever the
// indexer rate-limits the request.
package txscan

import (
	"context"
	"errors"
	"time"

	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/resilience/retry"
)

// ErrRateLimited indicates that the indexer rejected a request with an HTTP
// 429 response. The scanner reacts by waiting a fixed cooldown and retrying
// the same page, so no transactions are dropped.
var ErrRateLimited = errors.New("indexer rate limited the request")

const (
	defaultPageSize         = 100
	defaultMaxPages         = 5
	defaultPageDelay        = 500 * time.Millisecond
	defaultCooldown         = 10 * time.Second
	defaultCooldownAttempts = 5
)

// Transaction is a single entry of an address's transaction history as
// reported by the indexer. It is ephemeral: records are produced per scan
// pass and not retained.
type Transaction struct {
	Hash      string // transaction hash
	BlockTime int64  // unix seconds; 0 when the summary record omitted it
}

// TransactionLister provides paginated access to an address's transaction
// history, newest first. Page numbering starts at 1.
//
// Implementations must return ErrRateLimited (possibly wrapped) when the
// upstream service responds with HTTP 429, so the scanner can apply its
// cooldown policy instead of giving up on the page.
type TransactionLister interface {
	AddressTransactions(ctx context.Context, address string, page, count int) ([]Transaction, error)
}

// Service returns the recent transaction history for a watched address.
type Service interface {
	// RecentTransactions pages through the address's history, newest first,
	// and returns every record fetched. Pagination errors other than rate
	// limiting stop the scan early; pages already fetched are still
	// returned. The only error ever surfaced is context cancellation.
	RecentTransactions(ctx context.Context, address string) ([]Transaction, error)
}

type service struct {
	lister TransactionLister

	pageSize  int
	maxPages  int
	pageDelay time.Duration

	rateLimitRetry retry.Retry
}

var _ Service = (*service)(nil)

type config struct {
	pageSize         int
	maxPages         int
	pageDelay        time.Duration
	cooldown         time.Duration
	cooldownAttempts uint
}

// Option configures the scanner service.
type Option func(*config)

// New creates a transaction scanner on top of the given lister.
//
// Defaults: 100 records per page, at most 5 pages per pass (a deliberate
// bound on per-cycle work), 500ms between successful page fetches, and a
// 10s cooldown with at most 5 attempts when the indexer rate-limits a page.
func New(lister TransactionLister, opts ...Option) *service {
	cfg := config{
		pageSize:         defaultPageSize,
		maxPages:         defaultMaxPages,
		pageDelay:        defaultPageDelay,
		cooldown:         defaultCooldown,
		cooldownAttempts: defaultCooldownAttempts,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rateLimitRetry := retry.New(
		retry.WithAttempts(cfg.cooldownAttempts),
		retry.WithDelay(cfg.cooldown),
		retry.WithMaxDelay(cfg.cooldown),
		retry.WithFixedDelay(),
		retry.WithRetryIf(func(err error) bool {
			return errors.Is(err, ErrRateLimited)
		}),
	)

	return &service{
		lister:         lister,
		pageSize:       cfg.pageSize,
		maxPages:       cfg.maxPages,
		pageDelay:      cfg.pageDelay,
		rateLimitRetry: rateLimitRetry,
	}
}

// WithPageSize sets how many records are requested per page. Default: 100.
func WithPageSize(n int) Option {
	return func(c *config) {
		c.pageSize = n
	}
}

// WithMaxPages caps the number of pages fetched per pass. Default: 5.
func WithMaxPages(n int) Option {
	return func(c *config) {
		c.maxPages = n
	}
}

// WithPageDelay sets the throttling delay after each successful page fetch.
// Default: 500ms.
func WithPageDelay(d time.Duration) Option {
	return func(c *config) {
		c.pageDelay = d
	}
}

// WithRateLimitCooldown sets the wait applied before retrying a page that
// was rate limited. Default: 10s.
func WithRateLimitCooldown(d time.Duration) Option {
	return func(c *config) {
		c.cooldown = d
	}
}

// WithRateLimitAttempts caps how many times a rate-limited page is attempted
// before the pass gives up on it. Default: 5.
func WithRateLimitAttempts(n uint) Option {
	return func(c *config) {
		c.cooldownAttempts = n
	}
}

// RecentTransactions implements Service.
func (s *service) RecentTransactions(ctx context.Context, address string) ([]Transaction, error) {
	txs := make([]Transaction, 0, s.pageSize)

	for page := 1; page <= s.maxPages; page++ {
		var pageTxs []Transaction

		// Rate-limited pages are retried in place after the cooldown; any
		// other failure aborts pagination for this address, keeping the
		// pages already fetched.
		err := s.rateLimitRetry.Execute(ctx, func() error {
			var fetchErr error
			pageTxs, fetchErr = s.lister.AddressTransactions(ctx, address, page, s.pageSize)
			return fetchErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return txs, ctx.Err()
			}

			logger.Warn(ctx, "address transaction scan stopped early",
				"address", address,
				"page", page,
				"error", err,
			)
			break
		}

		txs = append(txs, pageTxs...)

		// A short page means the history is exhausted.
		if len(pageTxs) < s.pageSize {
			break
		}

		if page < s.maxPages && !sleep(ctx, s.pageDelay) {
			return txs, ctx.Err()
		}
	}

	return txs, nil
}

// sleep waits for d or until the context is canceled, reporting whether the
// full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
