package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"workshop-timer/internal/session"
)

// newStatusCommand creates the status command
func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current timer session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.commandContext(cmd.Context())
			defer cancel()
			if err := app.EnsureReconciled(ctx); err != nil {
				return err
			}

			snapshot := app.Machine.Snapshot()
			switch snapshot.State {
			case session.StateIdle:
				fmt.Println("No timer is running")
			case session.StateRunning:
				fmt.Printf("Running: order %s, activity %s, elapsed %s (since %s)\n",
					snapshot.OrderID, snapshot.ActivityID,
					session.FormatElapsed(snapshot.Elapsed),
					snapshot.StartTime.Local().Format("2006-01-02 15:04:05"))
			case session.StatePaused:
				fmt.Printf("Paused: order %s, activity %s, elapsed %s (paused since %s)\n",
					snapshot.OrderID, snapshot.ActivityID,
					session.FormatElapsed(snapshot.Elapsed),
					snapshot.PausedAt.Local().Format("15:04:05"))
			default:
				fmt.Printf("Session state: %s\n", snapshot.State)
			}

			if snapshot.Location != "" {
				fmt.Printf("Location: %s\n", snapshot.Location)
			}
			if snapshot.Notes != "" {
				fmt.Printf("Notes: %s\n", snapshot.Notes)
			}
			return nil
		},
	}
}
