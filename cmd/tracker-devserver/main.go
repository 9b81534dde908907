// Command tracker-devserver serves the tracker REST API from a local
// SQLite file, for development and end-to-end testing of the client.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/tracker-sync/internal/devserver"
	"github.com/nhle/tracker-sync/internal/logging"
	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr     string
		dbPath   string
		envelope bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "tracker-devserver",
		Short:         "Run a local tracker API server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logging.ParseLevel(logLevel),
			}))

			if dir := filepath.Dir(dbPath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating data directory: %w", err)
				}
			}

			st, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := devserver.New(st,
				devserver.WithLogger(logger),
				devserver.WithListEnvelope(envelope),
			)

			logger.Info("using database", "path", dbPath)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringVar(&dbPath, "db", filepath.Join(model.ConfigDir(), "devserver.db"), "SQLite database path")
	cmd.Flags().BoolVar(&envelope, "envelope", false, `Wrap list responses in {"items": [...]}`)
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}
