// Package addressbook builds the watched-address set at startup by
// expanding configured stake keys into their payment addresses and merging
// in the fixed extra addresses. The result is immutable for the process
// lifetime; the watched policy set is held alongside it.
package addressbook

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/types"
)

var (
	// ErrNoWatchedAddresses indicates that stake-key expansion and the
	// extra-address list together produced an empty watch set.
	ErrNoWatchedAddresses = errors.New("no watched addresses resolved")

	// ErrInvalidPolicyID indicates a configured policy id is not a
	// 56-character hex string.
	ErrInvalidPolicyID = errors.New("invalid policy id")
)

// AddressResolver expands a stake key into the payment addresses it
// controls. This is a one-shot startup call against the indexer.
type AddressResolver interface {
	StakeAddresses(ctx context.Context, stakeKey string) ([]string, error)
}

// Book is the resolved, deduplicated watch configuration: the address set
// in registration order and the watched policy set. Read-only after Resolve.
type Book struct {
	addresses []string
	policies  types.Set[string]
}

// Resolve builds the Book. For each stake key the resolver is queried once;
// a failed expansion is logged and skipped rather than aborting startup.
// Extra addresses are appended after the expansions. Duplicates are dropped
// while preserving first-seen order.
//
// Returns ErrInvalidPolicyID if any policy id is malformed, and
// ErrNoWatchedAddresses if the final address set is empty.
func Resolve(ctx context.Context, resolver AddressResolver, stakeKeys, extraAddresses, policyIDs []string) (*Book, error) {
	policies := types.NewSet[string]()
	for _, policyID := range policyIDs {
		if !types.Hex(policyID).IsPolicyID() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPolicyID, policyID)
		}
		policies.Add(policyID)
	}

	var (
		seen      = types.NewSet[string]()
		addresses = make([]string, 0)
	)

	appendAddress := func(address string) {
		if address == "" || seen.Has(address) {
			return
		}
		seen.Add(address)
		addresses = append(addresses, address)
	}

	for _, stakeKey := range stakeKeys {
		expanded, err := resolver.StakeAddresses(ctx, stakeKey)
		if err != nil {
			logger.Warn(ctx, "stake key expansion failed",
				"stake_key", stakeKey,
				"error", err,
			)
			continue
		}

		for _, address := range expanded {
			appendAddress(address)
		}
	}

	for _, address := range extraAddresses {
		appendAddress(address)
	}

	if len(addresses) == 0 {
		return nil, ErrNoWatchedAddresses
	}

	return &Book{
		addresses: addresses,
		policies:  policies,
	}, nil
}

// Addresses returns a copy of the watched address list in registration order.
func (b *Book) Addresses() []string {
	out := make([]string, len(b.addresses))
	copy(out, b.addresses)
	return out
}

// Policies returns the watched policy set. Callers must treat it as
// read-only.
func (b *Book) Policies() types.Set[string] {
	return b.policies
}

// WatchesPolicy reports whether the given policy id is watched.
func (b *Book) WatchesPolicy(policyID string) bool {
	return b.policies.Has(policyID)
}
