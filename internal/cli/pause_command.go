package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"workshop-timer/internal/session"
)

// newPauseCommand creates the pause command
func newPauseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running timer",
		Long: `Pause the running timer. The time entry stays open on the server;
pausing records an interruption and freezes the elapsed display.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.commandContext(cmd.Context())
			defer cancel()
			if err := app.EnsureReconciled(ctx); err != nil {
				return err
			}

			if err := app.Machine.Pause(ctx); err != nil {
				return NewErrorHandler().Handle("pause", err)
			}

			fmt.Printf("Paused at %s elapsed\n", session.FormatElapsed(app.Machine.Elapsed()))
			return nil
		},
	}
}
