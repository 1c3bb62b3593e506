package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root cobra command with all subcommands.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "wt",
		Short: "Workshop timer for the goldsmith ERP",
		Long: `Workshop Timer (wt) tracks labor time against orders in the workshop ERP.

The active session lives on the server; wt mirrors it locally so it
survives restarts, and re-syncs with the server before every command.

EXAMPLES:
  wt start -o ORD-2041 -a act-polishing     # Start the timer on an order
  wt status                                 # Show the current session
  wt watch                                  # Live elapsed display with background sync
  wt pause                                  # Record an interruption, freeze the clock
  wt resume                                 # Resume work
  wt stop --complexity 4 --quality 5        # Stop and rate the finished work
  wt abandon                                # Discard local state, re-sync from server
  wt activities --most-used 5               # Most used work activities

CONFIGURATION (environment variables):
  WT_SERVER_URL            Backend base URL (default: http://localhost:8321)
  WT_SERVER_TOKEN          Bearer token for the backend
  WT_SERVER_TIMEOUT        Request timeout (default: 10s)
  WT_DATA_DIR              Data directory (default: ~/.wt)
  WT_TICK_INTERVAL         Elapsed display cadence (default: 1s)
  WT_POLL_INTERVAL         Background sync cadence (default: 5s)
  WT_POLL_MISS_THRESHOLD   Consecutive "no entry" polls before the
                           session is closed locally (default: 2)
  WT_LOG_LEVEL             Log level (default: info)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStartCommand(app),
		newPauseCommand(app),
		newResumeCommand(app),
		newStopCommand(app),
		newStatusCommand(app),
		newWatchCommand(app),
		newAbandonCommand(app),
		newActivitiesCommand(app),
		newStubServerCommand(app),
	)

	return root
}
