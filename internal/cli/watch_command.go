package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"workshop-timer/internal/session"
)

// newWatchCommand creates the watch command
func newWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live elapsed display with background sync",
		Long: `Show the running timer live. The elapsed value is recomputed every
second from the absolute start timestamp, and the server is polled in
the background to detect a session closed from another device.
Leaving watch mode does not stop the timer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.EnsureReconciled(ctx); err != nil {
				return err
			}

			if app.Machine.State() == session.StateIdle {
				fmt.Println("No timer is running")
				return nil
			}

			snapshot := app.Machine.Snapshot()
			fmt.Printf("Watching order %s, activity %s (Ctrl-C to leave, timer keeps running)\n",
				snapshot.OrderID, snapshot.ActivityID)

			app.Machine.EnableLoops(func(elapsed time.Duration) {
				fmt.Printf("\r\033[K⏱  %s", session.FormatElapsed(elapsed))
			})
			defer app.Machine.DisableLoops()

			// Leave when the user interrupts or the session ends (stopped
			// elsewhere and detected by the sync poll).
			check := time.NewTicker(500 * time.Millisecond)
			defer check.Stop()
			for {
				select {
				case <-ctx.Done():
					fmt.Println()
					return nil
				case <-check.C:
					if app.Machine.State() == session.StateIdle {
						fmt.Println()
						return nil
					}
				}
			}
		},
	}
}
