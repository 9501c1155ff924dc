package assetmeta

import (
	"context"
	"errors"
	"testing"

	"github.com/gabapcia/listingwatch/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

type assetFetcherMock struct {
	mock.Mock
}

func (m *assetFetcherMock) Asset(ctx context.Context, unit string) (Asset, error) {
	args := m.Called(ctx, unit)
	return args.Get(0).(Asset), args.Error(1)
}

func TestFetchAssets(t *testing.T) {
	t.Run("preserves input order and drops failed units", func(t *testing.T) {
		fetcher := new(assetFetcherMock)
		fetcher.On("Asset", mock.Anything, "unit-a").
			Return(Asset{Unit: "unit-a", OnchainMetadata: map[string]any{"name": "First"}}, nil).
			Once()
		fetcher.On("Asset", mock.Anything, "unit-b").
			Return(Asset{}, errors.New("not found")).
			Once()
		fetcher.On("Asset", mock.Anything, "unit-c").
			Return(Asset{Unit: "unit-c", OnchainMetadata: map[string]any{"name": "Third"}}, nil).
			Once()

		svc := New(fetcher, WithCallDelay(0))

		records := svc.FetchAssets(t.Context(), []string{"unit-a", "unit-b", "unit-c"})

		require.Len(t, records, 2)
		assert.Equal(t, "First", records[0].DisplayName)
		assert.Equal(t, "Third", records[1].DisplayName)
		fetcher.AssertExpectations(t)
	})

	t.Run("empty unit list", func(t *testing.T) {
		fetcher := new(assetFetcherMock)

		svc := New(fetcher, WithCallDelay(0))

		assert.Empty(t, svc.FetchAssets(t.Context(), nil))
		fetcher.AssertNotCalled(t, "Asset")
	})
}

func TestDisplayName(t *testing.T) {
	t.Run("metadata name wins", func(t *testing.T) {
		asset := Asset{
			AssetNameHex:    "4e465431",
			OnchainMetadata: map[string]any{"name": "Space Ape #42", "Asset": "ignored"},
		}

		assert.Equal(t, "Space Ape #42", displayName(asset))
	})

	t.Run("falls back to the Asset field", func(t *testing.T) {
		asset := Asset{
			AssetNameHex:    "4e465431",
			OnchainMetadata: map[string]any{"Asset": "SpaceApe42"},
		}

		assert.Equal(t, "SpaceApe42", displayName(asset))
	})

	t.Run("falls back to the decoded asset name hex", func(t *testing.T) {
		asset := Asset{AssetNameHex: "4e465431"}

		assert.Equal(t, "NFT1", displayName(asset))
	})

	t.Run("undecodable name yields Unknown", func(t *testing.T) {
		asset := Asset{AssetNameHex: "ff"}

		assert.Equal(t, "Unknown", displayName(asset))
	})

	t.Run("empty metadata and name hex yields Unknown", func(t *testing.T) {
		assert.Equal(t, "Unknown", displayName(Asset{}))
	})
}

func TestFormatPrice(t *testing.T) {
	t.Run("numeric lovelace price", func(t *testing.T) {
		assert.Equal(t, "50.00 ADA", formatPrice(map[string]any{"price": float64(50000000)}))
	})

	t.Run("fractional result keeps two decimals", func(t *testing.T) {
		assert.Equal(t, "12.35 ADA", formatPrice(map[string]any{"price": float64(12345678)}))
	})

	t.Run("string lovelace price", func(t *testing.T) {
		assert.Equal(t, "1.00 ADA", formatPrice(map[string]any{"price": "1000000"}))
	})

	t.Run("missing price", func(t *testing.T) {
		assert.Equal(t, "N/A", formatPrice(map[string]any{"name": "no price here"}))
	})

	t.Run("unparsable price", func(t *testing.T) {
		assert.Equal(t, "N/A", formatPrice(map[string]any{"price": "fifty"}))
	})

	t.Run("negative price", func(t *testing.T) {
		assert.Equal(t, "N/A", formatPrice(map[string]any{"price": float64(-1)}))
	})

	t.Run("nil metadata", func(t *testing.T) {
		assert.Equal(t, "N/A", formatPrice(nil))
	})
}
