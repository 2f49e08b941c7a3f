package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/pulsecheck/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis over an HTTP JSON API",
	Long: `Start an HTTP server that runs the analysis per request.

Endpoints:
  GET /health
  GET /api/summary
  GET /api/trends
  GET /api/trends/{metric}
  GET /api/correlations
  GET /api/weekdays
  GET /api/recommendations
  GET /metrics              (Prometheus)

Every /api endpoint accepts the query parameters days, end and as_of,
which override the configured range for that request.

Examples:
  pulsecheck serve --addr :8080
  curl 'localhost:8080/api/trends/resting_hr?days=60'`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(cfg, cacheManager, logger).ListenAndServe(ctx)
	},
}
