// =============================================================================
// Pipeline Dashboard - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   dashboard serve [--addr :8080] [--refresh 300]
//
// The server runs until SIGINT or SIGTERM, then shuts down gracefully.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pipeline-dashboard/internal/dashboard"
	"github.com/ginjaninja78/pipeline-dashboard/internal/server"
	"github.com/ginjaninja78/pipeline-dashboard/internal/source"
)

var (
	serveAddr    string
	serveRefresh int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Long: `Serve the dashboard page and its JSON API.

Routes:
  GET /                   Dashboard page
  GET /api/opportunities  Bucketed opportunity report
  GET /api/tickets        Issue-tracker tickets
  GET /api/dashboard      Both datasets, fetched concurrently
  GET /api/status         Configuration status
  GET /healthz            Liveness check

Every request refreshes its data from the sources.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().IntVar(&serveRefresh, "refresh", -1, "Page auto-refresh in seconds, 0 disables (overrides server.refresh_seconds)")
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveRefresh >= 0 {
		cfg.Server.RefreshSeconds = serveRefresh
	}

	status := cfg.Status()
	logger.WithField("strategies", source.New(cfg, nil).Strategies()).Info("configuration: %s", status.Message)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dash := dashboard.New(cfg, logger)
	return server.NewServer(cfg.Server, dash, logger).ListenAndServe(ctx)
}
