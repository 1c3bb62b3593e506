package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"workshop-timer/internal/session"
)

// newAbandonCommand creates the abandon command
func newAbandonCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Discard the local session and re-sync from the server",
		Long: `Discard whatever the local mirror believes and adopt the server's
view of the running session. Use this to recover after an error, or
when the local state is suspect. Nothing is changed on the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.commandContext(cmd.Context())
			defer cancel()
			if err := app.Machine.Abandon(ctx); err != nil {
				return NewErrorHandler().Handle("abandon local session", err)
			}

			if app.Machine.State() == session.StateIdle {
				fmt.Println("Local session discarded; no timer is running on the server")
			} else {
				snapshot := app.Machine.Snapshot()
				fmt.Printf("Local session discarded; adopted running timer on order %s (entry %s)\n",
					snapshot.OrderID, snapshot.EntryID)
			}
			return nil
		},
	}
}
