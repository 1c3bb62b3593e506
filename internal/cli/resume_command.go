package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"workshop-timer/internal/session"
)

// newResumeCommand creates the resume command
func newResumeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.commandContext(cmd.Context())
			defer cancel()
			if err := app.EnsureReconciled(ctx); err != nil {
				return err
			}

			if err := app.Machine.Resume(ctx); err != nil {
				return NewErrorHandler().Handle("resume", err)
			}

			fmt.Printf("Resumed at %s elapsed\n", session.FormatElapsed(app.Machine.Elapsed()))
			return nil
		},
	}
}
