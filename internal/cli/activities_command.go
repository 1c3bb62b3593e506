package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"workshop-timer/internal/domain"
)

// newActivitiesCommand creates the activities command
func newActivitiesCommand(app *App) *cobra.Command {
	var (
		mostUsed int
		byUsage  bool
	)

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List work activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.commandContext(cmd.Context())
			defer cancel()

			var activities []*domain.Activity
			var err error
			if mostUsed > 0 {
				activities, err = app.Activities.MostUsed(ctx, mostUsed)
			} else {
				activities, err = app.Activities.List(ctx, byUsage)
			}
			if err != nil {
				return NewErrorHandler().Handle("list activities", err)
			}

			if len(activities) == 0 {
				fmt.Println("No activities found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tUSED\tAVG MIN")
			for _, a := range activities {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\n",
					a.ID, a.Name, a.Category, a.UsageCount, a.AverageDurationMinutes)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&mostUsed, "most-used", 0, "show only the N most used activities")
	cmd.Flags().BoolVar(&byUsage, "by-usage", false, "sort by usage instead of name")

	return cmd
}
