package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmcdole/shelf/internal/logging"
	"github.com/mmcdole/shelf/internal/sandbox"
)

// NewSandboxCommand creates the sandbox command.
func NewSandboxCommand(rootOpts *RootOptions) *cobra.Command {
	var addr, user string

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run an in-memory library backend",
		Long: `Run a throwaway backend that speaks the library API, seeded with
sample books. Point shelf at it with --server http://localhost:8080.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password, ok := strings.Cut(user, ":")
			if !ok || email == "" || password == "" {
				return fmt.Errorf("invalid --user %q: want email:password", user)
			}

			level := "info"
			if rootOpts.Verbose {
				level = "debug"
			}
			logger := logging.New(cmd.ErrOrStderr(), level)
			sb := sandbox.New(logger, sandbox.WithAccount("Sandbox Librarian", email, password, "librarian"))

			srv := &http.Server{
				Addr:              addr,
				Handler:           sb.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Sandbox listening on %s (login %s / %s)\n", addr, email, password)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&user, "user", "librarian@example.com:library", "seeded account as email:password")
	return cmd
}
