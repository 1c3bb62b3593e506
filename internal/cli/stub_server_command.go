package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"workshop-timer/internal/stubserver"
)

// newStubServerCommand creates the stub-server command
func newStubServerCommand(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Run a development stand-in for the ERP backend",
		Long: `Run an in-memory implementation of the time tracking API the client
consumes. Useful for trying wt without the real ERP; all data is lost
when the process exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := &http.Server{
				Addr:    addr,
				Handler: stubserver.New().Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()
			fmt.Printf("Stub ERP backend listening on %s\n", addr)

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8321", "listen address")

	return cmd
}
