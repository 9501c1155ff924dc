package listingwatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

type utxoFetcherMock struct {
	mock.Mock
}

func (m *utxoFetcherMock) TransactionUTXOs(ctx context.Context, txHash string) (TransactionUTXOs, error) {
	args := m.Called(ctx, txHash)
	return args.Get(0).(TransactionUTXOs), args.Error(1)
}

func (m *utxoFetcherMock) TransactionBlockTime(ctx context.Context, txHash string) (int64, error) {
	args := m.Called(ctx, txHash)
	return args.Get(0).(int64), args.Error(1)
}

var (
	watchedPolicy = strings.Repeat("ab", 28)
	otherPolicy   = strings.Repeat("cd", 28)

	watchedUnit = watchedPolicy + "4e465431" // asset name "NFT1"
	otherUnit   = otherPolicy + "4e465432"
)

func TestDetectDeposit(t *testing.T) {
	const (
		address = "addr1qxy"
		txHash  = "deadbeef"
	)

	policies := types.NewSet(watchedPolicy)

	t.Run("detects a watched asset deposited into the address", func(t *testing.T) {
		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{
				Hash: txHash,
				Outputs: []TxOutput{
					{
						Address: address,
						Amounts: []TxAmount{
							{Unit: "lovelace", Quantity: "50000000"},
							{Unit: watchedUnit, Quantity: "1"},
						},
					},
				},
			}, nil).
			Once()

		svc := New(fetcher, policies)

		listing, found, err := svc.DetectDeposit(t.Context(), address, txHash, 1700000000)

		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, txHash, listing.TxHash)
		assert.Equal(t, int64(1700000000), listing.BlockTime)
		assert.Equal(t, []string{watchedUnit}, listing.Units)
		fetcher.AssertExpectations(t)
	})

	t.Run("ignores outputs sent to other addresses", func(t *testing.T) {
		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{
				Hash: txHash,
				Outputs: []TxOutput{
					{
						Address: "addr1other",
						Amounts: []TxAmount{{Unit: watchedUnit, Quantity: "1"}},
					},
				},
			}, nil).
			Once()

		svc := New(fetcher, policies)

		_, found, err := svc.DetectDeposit(t.Context(), address, txHash, 1700000000)

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ignores assets from unwatched policies", func(t *testing.T) {
		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{
				Hash: txHash,
				Outputs: []TxOutput{
					{
						Address: address,
						Amounts: []TxAmount{{Unit: otherUnit, Quantity: "1"}},
					},
				},
			}, nil).
			Once()

		svc := New(fetcher, policies)

		_, found, err := svc.DetectDeposit(t.Context(), address, txHash, 1700000000)

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("deduplicates a unit repeated across outputs", func(t *testing.T) {
		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{
				Hash: txHash,
				Outputs: []TxOutput{
					{Address: address, Amounts: []TxAmount{{Unit: watchedUnit, Quantity: "1"}}},
					{Address: address, Amounts: []TxAmount{{Unit: watchedUnit, Quantity: "1"}}},
				},
			}, nil).
			Once()

		svc := New(fetcher, policies)

		listing, found, err := svc.DetectDeposit(t.Context(), address, txHash, 1700000000)

		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{watchedUnit}, listing.Units)
	})

	t.Run("utxo fetch failure is returned to the caller", func(t *testing.T) {
		fetchErr := errors.New("indexer unavailable")

		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{}, fetchErr).
			Once()

		svc := New(fetcher, policies)

		_, found, err := svc.DetectDeposit(t.Context(), address, txHash, 1700000000)

		require.Error(t, err)
		assert.ErrorIs(t, err, fetchErr)
		assert.False(t, found)
	})

	t.Run("missing block time falls back to the per-transaction lookup", func(t *testing.T) {
		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{
				Hash: txHash,
				Outputs: []TxOutput{
					{Address: address, Amounts: []TxAmount{{Unit: watchedUnit, Quantity: "1"}}},
				},
			}, nil).
			Once()
		fetcher.On("TransactionBlockTime", mock.Anything, txHash).
			Return(int64(1700000000), nil).
			Once()

		svc := New(fetcher, policies)

		listing, found, err := svc.DetectDeposit(t.Context(), address, txHash, 0)

		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(1700000000), listing.BlockTime)
		fetcher.AssertExpectations(t)
	})

	t.Run("block time lookup failure still yields the listing", func(t *testing.T) {
		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{
				Hash: txHash,
				Outputs: []TxOutput{
					{Address: address, Amounts: []TxAmount{{Unit: watchedUnit, Quantity: "1"}}},
				},
			}, nil).
			Once()
		fetcher.On("TransactionBlockTime", mock.Anything, txHash).
			Return(int64(0), errors.New("lookup failed")).
			Once()

		svc := New(fetcher, policies)

		listing, found, err := svc.DetectDeposit(t.Context(), address, txHash, 0)

		require.NoError(t, err)
		require.True(t, found)
		assert.Zero(t, listing.BlockTime)
		assert.Zero(t, listing.Epoch)
	})

	t.Run("deposits below the minimum epoch are filtered out", func(t *testing.T) {
		fetcher := new(utxoFetcherMock)
		fetcher.On("TransactionUTXOs", mock.Anything, txHash).
			Return(TransactionUTXOs{
				Hash: txHash,
				Outputs: []TxOutput{
					{Address: address, Amounts: []TxAmount{{Unit: watchedUnit, Quantity: "1"}}},
				},
			}, nil).
			Twice()

		svc := New(fetcher, policies,
			WithGenesis(0, 100),
			WithMinEpoch(10),
		)

		_, found, err := svc.DetectDeposit(t.Context(), address, txHash, 500) // epoch 5
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = svc.DetectDeposit(t.Context(), address, txHash, 1500) // epoch 15
		require.NoError(t, err)
		assert.True(t, found)
	})
}

func TestEpochAt(t *testing.T) {
	t.Run("mainnet parameters", func(t *testing.T) {
		// one full epoch past genesis
		epoch := EpochAt(MainnetGenesisTime+EpochDurationSeconds, MainnetGenesisTime, EpochDurationSeconds)

		assert.Equal(t, int64(1), epoch)
	})

	t.Run("block time before genesis", func(t *testing.T) {
		assert.Zero(t, EpochAt(MainnetGenesisTime-1, MainnetGenesisTime, EpochDurationSeconds))
	})

	t.Run("zero duration", func(t *testing.T) {
		assert.Zero(t, EpochAt(1700000000, MainnetGenesisTime, 0))
	})
}
