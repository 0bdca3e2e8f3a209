package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/api"
	"github.com/kamaD-y/dcp-ops-monitor/api/handler"
	"github.com/kamaD-y/dcp-ops-monitor/metrics"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the run trigger, health and metrics endpoints over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// ── 1. Metrics ──────────────────────────────────────────────────
		m := metrics.New()

		// ── 2. Runner ───────────────────────────────────────────────────
		runner, cleanup, err := buildRunner(ctx, cfg, m)
		if err != nil {
			return err
		}
		defer cleanup()

		// ── 3. Setup router ─────────────────────────────────────────────
		startTime := time.Now()
		var snapshots handler.SnapshotLoader
		if loader, ok := runner.Snapshots.(handler.SnapshotLoader); ok {
			snapshots = loader
		}
		router := api.NewRouter(runner, snapshots, m, cfg, startTime)

		// ── 4. Start HTTP server ────────────────────────────────────────
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		// ── 5. Graceful shutdown ────────────────────────────────────────
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			slog.Info("shutdown signal received")
		}

		// In-flight runs are detached from requests, so give them the run budget.
		grace := 5 * time.Second
		if runner.Running() && cfg.Scraper.FetchTimeout > grace {
			grace = cfg.Scraper.FetchTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		slog.Info("dcpmon stopped")
		return nil
	},
}
