// Package listingproc coordinates the monitoring cycle: for each watched
// address it scans recent transactions, detects watched-policy deposits,
// fetches asset metadata, resolves a display image, publishes one
// notification per matching asset, and marks the transaction processed.
package listingproc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabapcia/listingwatch/internal/assetmeta"
	"github.com/gabapcia/listingwatch/internal/imageresolve"
	"github.com/gabapcia/listingwatch/internal/listingwatch"
	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/types"
	"github.com/gabapcia/listingwatch/internal/pkg/x/chflow"
	"github.com/gabapcia/listingwatch/internal/txscan"

	"github.com/google/uuid"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

const (
	// notificationTitle is the fixed title of every listing notification.
	notificationTitle = "New Listing Detected"

	defaultInterval           = 3 * time.Minute
	defaultMarketplaceBaseURL = "https://www.jpg.store"

	reportChannelBufferSize = 5
)

// Service drives the monitoring cycle on a fixed timer.
type Service interface {
	// Start publishes the readiness notification, runs one cycle
	// immediately, and then re-runs the cycle on every timer tick until the
	// context is canceled or Close is called. Cycles never overlap: a cycle
	// that outlives the interval simply delays the next tick's work.
	//
	// Returns ErrServiceAlreadyStarted if Start is called more than once.
	Start(ctx context.Context) error

	// Close shuts down the monitoring loop. It is safe to call Close even
	// if the service was never started.
	Close()

	// Reports returns the channel on which per-cycle summaries are
	// published. The channel is closed when the service stops. Reports are
	// dropped, never queued, when the consumer lags.
	Reports() <-chan CycleReport
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	addresses []string // watched addresses, registration order, read-only

	scanner  txscan.Service
	detector listingwatch.Service
	assets   assetmeta.Service
	images   imageresolve.Resolver
	notifier ListingNotifier
	ledger   ProcessedLedger

	interval           time.Duration
	marketplaceBaseURL string

	reportCh chan CycleReport
}

var _ Service = (*service)(nil)

type config struct {
	interval           time.Duration
	marketplaceBaseURL string
	ledger             ProcessedLedger
}

// Option configures the monitoring service.
type Option func(*config)

// New wires the monitoring cycle. The address list must already be resolved
// and deduplicated; it is treated as immutable for the service lifetime.
//
// Defaults: 3 minute cycle interval, in-memory processed ledger, jpg.store
// marketplace links.
func New(
	addresses []string,
	scanner txscan.Service,
	detector listingwatch.Service,
	assets assetmeta.Service,
	images imageresolve.Resolver,
	notifier ListingNotifier,
	opts ...Option,
) *service {
	cfg := config{
		interval:           defaultInterval,
		marketplaceBaseURL: defaultMarketplaceBaseURL,
		ledger:             NewMemoryLedger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		addresses:          addresses,
		scanner:            scanner,
		detector:           detector,
		assets:             assets,
		images:             images,
		notifier:           notifier,
		ledger:             cfg.ledger,
		interval:           cfg.interval,
		marketplaceBaseURL: strings.TrimSuffix(cfg.marketplaceBaseURL, "/"),
	}
}

// WithInterval sets the cycle timer interval. Default: 3 minutes.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		c.interval = d
	}
}

// WithLedger replaces the default in-memory processed ledger, e.g. with the
// Redis-backed implementation for multi-instance deployments.
func WithLedger(l ProcessedLedger) Option {
	return func(c *config) {
		c.ledger = l
	}
}

// WithMarketplaceBaseURL sets the base used for notification links
// (<base>/asset/<unit>).
func WithMarketplaceBaseURL(u string) Option {
	return func(c *config) {
		c.marketplaceBaseURL = u
	}
}

// Start implements Service.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	s.reportCh = make(chan CycleReport, reportChannelBufferSize)

	go func() {
		defer close(s.reportCh)
		s.run(ctx)
	}()

	s.closeFunc = closeFunc(cancel)
	s.isStarted = true
	return nil
}

// Close implements Service.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}

	s.closeFunc = nil
	s.isStarted = false
}

// Reports implements Service.
func (s *service) Reports() <-chan CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reportCh
}

// run sends the readiness notification and then drives the cycle timer.
// One cycle runs immediately; later cycles fire on ticks. Because runCycle
// executes on this goroutine, cycles cannot overlap; an overrunning cycle
// effectively skips ticks.
func (s *service) run(ctx context.Context) {
	readiness := Notification{
		Title:       "Listing monitor online",
		Description: fmt.Sprintf("Watching %d addresses for new listings", len(s.addresses)),
		PublishedAt: time.Now().UTC(),
	}
	if err := s.notifier.NotifyListing(ctx, readiness); err != nil {
		logger.Warn(ctx, "readiness notification failed", "error", err)
	}

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle visits every watched address sequentially, in registration
// order, and processes each transaction that is not yet in the ledger.
func (s *service) runCycle(ctx context.Context) {
	report := CycleReport{
		CycleID:   uuid.Must(uuid.NewV7()).String(),
		StartedAt: time.Now().UTC(),
	}

	counts := types.NewDefaultMap[string](func() int { return 0 })

	for _, address := range s.addresses {
		txs, err := s.scanner.RecentTransactions(ctx, address)
		if err != nil {
			// The scanner only surfaces context cancellation.
			return
		}

		for _, tx := range txs {
			if ctx.Err() != nil {
				return
			}

			inspected, notified := s.processTransaction(ctx, address, tx)
			if inspected {
				report.TransactionsInspected++
			}

			if notified > 0 {
				counts.Set(address, counts.Get(address)+notified)
				report.ListingsNotified += notified
			}
		}
	}

	report.NotificationsByAddress = counts.ToMap()
	report.FinishedAt = time.Now().UTC()

	logger.Info(ctx, "monitoring cycle finished",
		"cycle.id", report.CycleID,
		"cycle.transactions_inspected", report.TransactionsInspected,
		"cycle.listings_notified", report.ListingsNotified,
		"cycle.duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)

	chflow.TrySend(ctx, s.reportCh, report)
}

// processTransaction runs the full per-transaction pipeline. It returns
// whether the transaction was inspected (not a ledger hit) and how many
// notifications were published.
//
// Ledger policy: the hash is marked processed after any terminal outcome,
// publish failures included. The one exception is a UTXO fetch failure:
// nothing was inspected or published, so the transaction stays out of the
// ledger and is retried on the next cycle.
func (s *service) processTransaction(ctx context.Context, address string, tx txscan.Transaction) (bool, int) {
	seen, err := s.ledger.Seen(ctx, tx.Hash)
	if err != nil {
		logger.Error(ctx, "processed ledger lookup failed",
			"tx.hash", tx.Hash,
			"error", err,
		)
		return false, 0
	}
	if seen {
		return false, 0
	}

	listing, found, err := s.detector.DetectDeposit(ctx, address, tx.Hash, tx.BlockTime)
	if err != nil {
		logger.Warn(ctx, "deposit detection failed",
			"address", address,
			"tx.hash", tx.Hash,
			"error", err,
		)
		return true, 0
	}

	if !found {
		s.markProcessed(ctx, tx.Hash)
		return true, 0
	}

	records := s.assets.FetchAssets(ctx, listing.Units)

	notified := 0
	for _, record := range records {
		imageURL := s.images.Resolve(ctx, record.OnchainMetadata, record.Fingerprint)

		notification := Notification{
			Title:       notificationTitle,
			Description: fmt.Sprintf("%s listed for %s", record.DisplayName, record.Price),
			Link:        s.marketplaceBaseURL + "/asset/" + record.Unit,
			ImageURL:    imageURL,
			PublishedAt: time.Now().UTC(),
		}

		// Once-only delivery: a rejected publish is logged and skipped,
		// never retried, and never blocks the remaining assets.
		if err := s.notifier.NotifyListing(ctx, notification); err != nil {
			logger.Error(ctx, "listing notification failed",
				"tx.hash", tx.Hash,
				"asset.unit", record.Unit,
				"error", err,
			)
			continue
		}

		logger.Info(ctx, "listing notified",
			"tx.hash", tx.Hash,
			"asset.unit", record.Unit,
			"asset.name", record.DisplayName,
		)
		notified++
	}

	s.markProcessed(ctx, tx.Hash)
	return true, notified
}

// markProcessed records the hash in the ledger, logging (but otherwise
// ignoring) storage failures: a missed mark means at worst a duplicate
// notification on a later cycle.
func (s *service) markProcessed(ctx context.Context, txHash string) {
	if err := s.ledger.MarkProcessed(ctx, txHash); err != nil {
		logger.Error(ctx, "marking transaction as processed failed",
			"tx.hash", txHash,
			"error", err,
		)
	}
}
