package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabapcia/listingwatch/internal/handlers/health"
	"github.com/gabapcia/listingwatch/internal/listingproc"
	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/x/chflow"

	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// startMonitorCommand returns a CLI command that runs the listing monitor
// and the liveness endpoint until the process receives SIGINT or SIGTERM.
//
// Usage example:
//
//	listingwatch start
func startMonitorCommand(lp listingproc.Service, healthSrv *health.Server) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Runs the listing monitoring cycle and the liveness HTTP endpoint.",
		Usage:       "Starts the monitor. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := healthSrv.Start(); err != nil {
					logger.Error(ctx, "liveness server stopped unexpectedly", "error", err)
				}
			}()

			if err := lp.Start(ctx); err != nil {
				return err
			}
			defer lp.Close()

			go logCycleReports(ctx, lp.Reports())

			<-quit

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return healthSrv.Stop(shutdownCtx)
		},
	}
}

// logCycleReports consumes per-cycle summaries for operator visibility
// until the reports channel closes or the context is canceled.
func logCycleReports(ctx context.Context, reports <-chan listingproc.CycleReport) {
	for {
		report, ok := chflow.Receive(ctx, reports)
		if !ok {
			return
		}

		logger.Debug(ctx, "cycle report",
			"cycle.id", report.CycleID,
			"cycle.transactions_inspected", report.TransactionsInspected,
			"cycle.listings_notified", report.ListingsNotified,
			"cycle.notifications_by_address", report.NotificationsByAddress,
		)
	}
}
