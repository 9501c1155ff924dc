package cli

import (
	"context"
	"os"

	"github.com/gabapcia/listingwatch/internal/addressbook"
	"github.com/gabapcia/listingwatch/internal/assetmeta"
	"github.com/gabapcia/listingwatch/internal/handlers/health"
	"github.com/gabapcia/listingwatch/internal/imageresolve"
	"github.com/gabapcia/listingwatch/internal/listingproc"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the listingwatch CLI application.
//
// It registers all available commands, including:
//
//   - `start`: Runs the listing monitor and the liveness endpoint.
//   - `addresses`: Prints the resolved watched-address set.
//   - `resolve-image`: Resolves the display image for a single asset unit.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - lp: The listingproc service driving the monitoring cycle.
//   - book: The resolved watch configuration.
//   - assets: The asset metadata service used by debug commands.
//   - images: The image resolver used by debug commands.
//   - healthSrv: The liveness HTTP server started alongside the monitor.
func Run(
	ctx context.Context,
	lp listingproc.Service,
	book *addressbook.Book,
	assets assetmeta.Service,
	images imageresolve.Resolver,
	healthSrv *health.Server,
) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "listingwatch",
		Description:           "Command-line interface for running and inspecting the listing monitor.",
		Usage:                 "listingwatch [command] [flags]",
		Commands: []*cli.Command{
			startMonitorCommand(lp, healthSrv),
			listAddressesCommand(book),
			resolveImageCommand(assets, images),
		},
	}

	return app.Run(ctx, os.Args)
}
