package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/listingwatch/internal/addressbook"
	"github.com/gabapcia/listingwatch/internal/assetmeta"
	"github.com/gabapcia/listingwatch/internal/imageresolve"

	"github.com/urfave/cli/v3"
)

// ErrAssetUnavailable indicates the asset record could not be fetched for
// the requested unit.
var ErrAssetUnavailable = errors.New("asset record unavailable")

// listAddressesCommand returns a CLI command that prints the resolved
// watched-address set, one address per line, in registration order.
//
// Usage example:
//
//	listingwatch addresses
func listAddressesCommand(book *addressbook.Book) *cli.Command {
	return &cli.Command{
		Name:        "addresses",
		Description: "Prints the watched addresses resolved from stake keys and the extra-address list.",
		Usage:       "Lists the resolved watch set.",
		Action: func(ctx context.Context, c *cli.Command) error {
			for _, address := range book.Addresses() {
				fmt.Println(address)
			}
			return nil
		},
	}
}

// resolveImageCommand returns a CLI command that fetches a single asset
// record and prints its resolved image URL. Useful for debugging metadata
// with unusual image fields.
//
// Usage example:
//
//	listingwatch resolve-image --unit <policyid+assetnamehex>
func resolveImageCommand(assets assetmeta.Service, images imageresolve.Resolver) *cli.Command {
	return &cli.Command{
		Name:        "resolve-image",
		Description: "Fetches the asset record for a unit and resolves its display image.",
		Usage:       "Resolves the image for a single asset unit. Must provide the unit.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "unit",
				Usage:    "Asset unit (policy id + asset name hex)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			unit := c.String("unit")

			records := assets.FetchAssets(ctx, []string{unit})
			if len(records) == 0 {
				return fmt.Errorf("%w: %s", ErrAssetUnavailable, unit)
			}

			record := records[0]
			imageURL := images.Resolve(ctx, record.OnchainMetadata, record.Fingerprint)

			fmt.Printf("name:  %s\nprice: %s\nimage: %s\n", record.DisplayName, record.Price, imageURL)
			return nil
		},
	}
}
