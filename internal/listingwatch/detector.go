// Package listingwatch implements deposit detection: given a transaction
// against a watched address, it inspects the transaction's UTXO set and
// yields the asset units that move a watched-policy asset into that address.
package listingwatch

import (
	"context"
	"fmt"

	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/types"
)

// lovelaceUnit is the native-currency unit identifier; native currency
// amounts never represent a listing.
const lovelaceUnit = "lovelace"

// TxAmount is a single asset amount inside a transaction output.
type TxAmount struct {
	Unit     string // policy id (56 hex chars) + asset name hex, or "lovelace"
	Quantity string // amount as reported by the indexer
}

// TxOutput is a transaction output with its destination address and the
// asset amounts it carries.
type TxOutput struct {
	Address string
	Amounts []TxAmount
}

// TransactionUTXOs is the UTXO set of a transaction. Inputs are not needed
// for deposit detection and are not modeled.
type TransactionUTXOs struct {
	Hash    string
	Outputs []TxOutput
}

// Listing describes a detected deposit: the transaction, its timing, and the
// watched asset units it moved into the watched address.
type Listing struct {
	TxHash    string
	BlockTime int64    // unix seconds; 0 when unresolvable
	Epoch     int64    // derived from BlockTime; 0 when BlockTime is 0
	Units     []string // matching asset units, deduplicated, discovery order
}

// UTXOFetcher provides per-transaction lookups against the indexer.
type UTXOFetcher interface {
	// TransactionUTXOs returns the transaction's inputs and outputs with
	// asset amounts. Only outputs are inspected by the detector.
	TransactionUTXOs(ctx context.Context, txHash string) (TransactionUTXOs, error)

	// TransactionBlockTime returns the block time of the transaction. It is
	// the fallback used when the scan summary record lacked a block time.
	TransactionBlockTime(ctx context.Context, txHash string) (int64, error)
}

// Service detects watched-policy deposits into watched addresses.
type Service interface {
	// DetectDeposit inspects the transaction's outputs restricted to the
	// given address and returns the matching asset units. The boolean
	// reports whether at least one watched unit was found. A UTXO fetch
	// failure aborts detection for this transaction only and is returned
	// to the caller.
	DetectDeposit(ctx context.Context, address, txHash string, blockTime int64) (Listing, bool, error)
}

type service struct {
	utxoFetcher UTXOFetcher
	policies    types.Set[string]

	genesisTime   int64
	epochDuration int64
	minEpoch      int64 // 0 disables epoch filtering
}

var _ Service = (*service)(nil)

type config struct {
	genesisTime   int64
	epochDuration int64
	minEpoch      int64
}

// Option configures the detector service.
type Option func(*config)

// New creates a deposit detector for the given watched policy set.
// Epoch parameters default to Cardano mainnet.
func New(uf UTXOFetcher, policies types.Set[string], opts ...Option) *service {
	cfg := config{
		genesisTime:   MainnetGenesisTime,
		epochDuration: EpochDurationSeconds,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		utxoFetcher:   uf,
		policies:      policies,
		genesisTime:   cfg.genesisTime,
		epochDuration: cfg.epochDuration,
		minEpoch:      cfg.minEpoch,
	}
}

// WithGenesis overrides the network genesis time and epoch duration used for
// epoch derivation.
func WithGenesis(genesisTime, epochDuration int64) Option {
	return func(c *config) {
		c.genesisTime = genesisTime
		c.epochDuration = epochDuration
	}
}

// WithMinEpoch enables epoch-based filtering: deposits whose epoch is below
// the given value are ignored. Disabled by default.
func WithMinEpoch(epoch int64) Option {
	return func(c *config) {
		c.minEpoch = epoch
	}
}

// DetectDeposit implements Service.
func (s *service) DetectDeposit(ctx context.Context, address, txHash string, blockTime int64) (Listing, bool, error) {
	utxos, err := s.utxoFetcher.TransactionUTXOs(ctx, txHash)
	if err != nil {
		return Listing{}, false, fmt.Errorf("fetching utxos for tx %s: %w", txHash, err)
	}

	units := s.matchingUnits(address, utxos.Outputs)
	if len(units) == 0 {
		return Listing{}, false, nil
	}

	// The summary record may omit the block time; fall back to the dedicated
	// per-transaction lookup. The value only feeds optional epoch filtering,
	// so a failed lookup degrades to "no filtering" rather than aborting.
	if blockTime == 0 {
		resolved, err := s.utxoFetcher.TransactionBlockTime(ctx, txHash)
		if err != nil {
			logger.Warn(ctx, "block time lookup failed",
				"tx.hash", txHash,
				"error", err,
			)
		} else {
			blockTime = resolved
		}
	}

	var epoch int64
	if blockTime > 0 {
		epoch = EpochAt(blockTime, s.genesisTime, s.epochDuration)

		if s.minEpoch > 0 && epoch < s.minEpoch {
			return Listing{}, false, nil
		}
	}

	listing := Listing{
		TxHash:    txHash,
		BlockTime: blockTime,
		Epoch:     epoch,
		Units:     units,
	}
	return listing, true, nil
}

// matchingUnits walks the outputs restricted to the watched address and
// collects asset units whose policy prefix is in the watched set. Units are
// deduplicated across outputs so one transaction yields at most one entry
// per unit.
func (s *service) matchingUnits(address string, outputs []TxOutput) []string {
	var (
		seen  = types.NewSet[string]()
		units = make([]string, 0)
	)

	for _, out := range outputs {
		// Deposit semantics: outputs elsewhere are ignored even when they
		// carry the same asset.
		if out.Address != address {
			continue
		}

		for _, amount := range out.Amounts {
			if amount.Unit == lovelaceUnit || len(amount.Unit) < types.PolicyIDHexLen {
				continue
			}

			policyID := amount.Unit[:types.PolicyIDHexLen]
			if !s.policies.Has(policyID) || seen.Has(amount.Unit) {
				continue
			}

			seen.Add(amount.Unit)
			units = append(units, amount.Unit)
		}
	}

	return units
}
