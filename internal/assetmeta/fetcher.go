// Package assetmeta retrieves on-chain asset records from the indexer and
// derives the display fields needed by notifications: a human-readable name
// and a formatted price.
package assetmeta

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/types"

	"github.com/shopspring/decimal"
)

const (
	// unknownName is the terminal fallback when no name can be derived.
	unknownName = "Unknown"

	// noPrice is the display value when the metadata carries no usable price.
	noPrice = "N/A"

	// lovelaceExponent shifts a lovelace integer to its ADA major unit.
	lovelaceExponent = -6

	defaultCallDelay = 200 * time.Millisecond
)

// Asset is the on-chain record of an asset unit as returned by the indexer.
type Asset struct {
	Unit            string
	AssetNameHex    string
	Fingerprint     string
	OnchainMetadata map[string]any
}

// Record is an Asset enriched with the derived display fields.
type Record struct {
	Asset

	DisplayName string // name fallback chain result, never empty
	Price       string // "50.00 ADA" style, or "N/A"
}

// AssetFetcher retrieves the on-chain record for a single asset unit.
type AssetFetcher interface {
	Asset(ctx context.Context, unit string) (Asset, error)
}

// Service fetches and enriches asset records for a set of units.
type Service interface {
	// FetchAssets retrieves the record for every unit, fanning the calls out
	// concurrently with an individual pre-call delay to respect indexer rate
	// limits. Units whose fetch fails are logged and dropped; the returned
	// slice preserves the input order of the units that succeeded.
	FetchAssets(ctx context.Context, units []string) []Record
}

type service struct {
	fetcher   AssetFetcher
	callDelay time.Duration
}

var _ Service = (*service)(nil)

type config struct {
	callDelay time.Duration
}

// Option configures the asset metadata service.
type Option func(*config)

// New creates an asset metadata service. The default pre-call delay is 200ms.
func New(fetcher AssetFetcher, opts ...Option) *service {
	cfg := config{callDelay: defaultCallDelay}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		fetcher:   fetcher,
		callDelay: cfg.callDelay,
	}
}

// WithCallDelay sets the fixed delay applied before each asset fetch.
func WithCallDelay(d time.Duration) Option {
	return func(c *config) {
		c.callDelay = d
	}
}

// FetchAssets implements Service.
func (s *service) FetchAssets(ctx context.Context, units []string) []Record {
	var (
		wg      sync.WaitGroup
		results = make([]*Record, len(units))
	)

	for i, unit := range units {
		wg.Add(1)

		go func(i int, unit string) {
			defer wg.Done()

			// Each call is individually delayed even when issued
			// concurrently, keeping the request rate polite.
			if !sleep(ctx, s.callDelay) {
				return
			}

			asset, err := s.fetcher.Asset(ctx, unit)
			if err != nil {
				logger.Warn(ctx, "asset fetch failed",
					"asset.unit", unit,
					"error", err,
				)
				return
			}

			record := Record{
				Asset:       asset,
				DisplayName: displayName(asset),
				Price:       formatPrice(asset.OnchainMetadata),
			}
			results[i] = &record
		}(i, unit)
	}

	wg.Wait()

	// Failed units leave nil holes; drop them so a single bad asset never
	// blocks the rest of the transaction.
	records := make([]Record, 0, len(units))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}

	return records
}

// displayName derives a human-readable name for the asset:
// metadata "name", then metadata "Asset", then the hex-decoded asset name
// bytes, then "Unknown".
func displayName(asset Asset) string {
	if name, ok := stringField(asset.OnchainMetadata, "name"); ok {
		return name
	}

	if name, ok := stringField(asset.OnchainMetadata, "Asset"); ok {
		return name
	}

	if name, ok := types.Hex(asset.AssetNameHex).Text(); ok && name != "" {
		return name
	}

	return unknownName
}

// formatPrice converts a lovelace price from the metadata into a 2-decimal
// ADA string. Absent or unparsable prices yield "N/A".
func formatPrice(metadata map[string]any) string {
	lovelace, ok := lovelaceField(metadata, "price")
	if !ok || lovelace < 0 {
		return noPrice
	}

	ada := decimal.NewFromInt(lovelace).Shift(lovelaceExponent)
	return ada.StringFixed(2) + " ADA"
}

// stringField reads a non-empty string value from the metadata map.
func stringField(metadata map[string]any, key string) (string, bool) {
	if metadata == nil {
		return "", false
	}

	s, ok := metadata[key].(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// lovelaceField reads an integer lovelace amount from the metadata map.
// JSON decoding yields float64 for numbers, but some collections store the
// price as a string, so both shapes are accepted.
func lovelaceField(metadata map[string]any, key string) (int64, bool) {
	if metadata == nil {
		return 0, false
	}

	switch v := metadata[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
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
