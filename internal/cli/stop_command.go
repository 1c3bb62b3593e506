package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"workshop-timer/internal/domain"
	"workshop-timer/internal/session"
)

// newStopCommand creates the stop command
func newStopCommand(app *App) *cobra.Command {
	var (
		complexity int
		quality    int
		rework     bool
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the timer and rate the finished work",
		Long: `Stop the timer. Complexity and quality ratings (1-5) are optional;
out-of-range ratings are rejected before anything reaches the server.
If the stop fails, the session stays open and the stop must be retried.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.commandContext(cmd.Context())
			defer cancel()
			if err := app.EnsureReconciled(ctx); err != nil {
				return err
			}

			details := domain.StopDetails{
				ReworkRequired: rework,
				Notes:          notes,
			}
			if cmd.Flags().Changed("complexity") {
				details.ComplexityRating = &complexity
			}
			if cmd.Flags().Changed("quality") {
				details.QualityRating = &quality
			}

			if err := app.Machine.RequestStop(); err != nil {
				return NewErrorHandler().Handle("stop", err)
			}

			elapsed := session.FormatElapsed(app.Machine.Elapsed())
			entry, err := app.Machine.ConfirmStop(ctx, details)
			if err != nil {
				handler := NewErrorHandler()
				if handler.IsValidationError(err) {
					// Nothing was sent; return the session to its prior state.
					if cancelErr := app.Machine.CancelStop(); cancelErr != nil {
						app.Log.Errorw("failed to cancel stop", "error", cancelErr)
					}
				}
				return handler.Handle("stop", err)
			}

			if entry == nil {
				fmt.Println("Session was already closed elsewhere.")
				return nil
			}

			fmt.Printf("Stopped timer on order %s after %s", entry.OrderID, elapsed)
			if entry.DurationMinutes != nil {
				fmt.Printf(" (%d min booked)", *entry.DurationMinutes)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().IntVar(&complexity, "complexity", 0, "complexity rating, 1-5")
	cmd.Flags().IntVar(&quality, "quality", 0, "quality rating, 1-5")
	cmd.Flags().BoolVar(&rework, "rework", false, "mark the piece as needing rework")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "free-text notes")

	return cmd
}
