package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"workshop-timer/internal/session"
)

// newStartCommand creates the start command
func newStartCommand(app *App) *cobra.Command {
	var (
		orderID    string
		activityID string
		location   string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the timer on an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.commandContext(cmd.Context())
			defer cancel()
			if err := app.EnsureReconciled(ctx); err != nil {
				return err
			}

			// A failed earlier start leaves the machine in Error with no
			// session; starting again is the retry path.
			if app.Machine.State() == session.StateError {
				if err := app.Machine.Reset(); err != nil {
					return NewErrorHandler().Handle("start", err)
				}
			}

			if err := app.Machine.Start(ctx, orderID, activityID, location, notes); err != nil {
				handler := NewErrorHandler()
				if handler.IsConflictError(err) {
					fmt.Println("A session is already running; see 'wt status'.")
				}
				return handler.Handle("start", err)
			}

			snapshot := app.Machine.Snapshot()
			fmt.Printf("Started timer on order %s (activity %s, entry %s)\n",
				snapshot.OrderID, snapshot.ActivityID, snapshot.EntryID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&orderID, "order", "o", "", "order to book the time on (required)")
	cmd.Flags().StringVarP(&activityID, "activity", "a", "", "work activity (required)")
	cmd.Flags().StringVarP(&location, "location", "l", "", "workshop location tag")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "free-text notes")

	return cmd
}
