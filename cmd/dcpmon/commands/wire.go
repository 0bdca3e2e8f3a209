package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kamaD-y/dcp-ops-monitor/config"
	"github.com/kamaD-y/dcp-ops-monitor/job"
	"github.com/kamaD-y/dcp-ops-monitor/metrics"
	"github.com/kamaD-y/dcp-ops-monitor/notify"
	"github.com/kamaD-y/dcp-ops-monitor/orchestrator"
	"github.com/kamaD-y/dcp-ops-monitor/records"
	"github.com/kamaD-y/dcp-ops-monitor/scraper"
	"github.com/kamaD-y/dcp-ops-monitor/storage"
	"github.com/kamaD-y/dcp-ops-monitor/webhook"
)

// buildRunner assembles the job from configuration. Optional collaborators
// stay nil when not configured. The returned func releases the record store.
func buildRunner(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*job.Runner, func(), error) {
	creds, err := config.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}

	session := scraper.NewSession(
		scraper.NewLauncher(cfg.Browser, cfg.Scraper.ImplicitWait),
		creds,
		cfg.Scraper.ArtifactDir,
		scraper.WithCleanupTimeout(cfg.Scraper.ImplicitWait),
	)

	runner := &job.Runner{
		Metrics:     m,
		Location:    cfg.Timezone,
		HistoryDays: cfg.Records.HistoryDays,
	}
	cleanup := func() {}

	// ── Object storage ───────────────────────────────────────────────
	var artifacts orchestrator.ArtifactStore
	if cfg.Storage.Enabled() {
		bucket, err := storage.Open(cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		artifacts = bucket
		runner.Snapshots = bucket
		runner.Presigner = bucket
		slog.Info("object storage enabled", "endpoint", cfg.Storage.Endpoint, "bucket", bucket.Name())
	} else {
		slog.Warn("no bucket configured: failure artifacts stay local", "dir", cfg.Scraper.ArtifactDir)
	}
	runner.Scraper = orchestrator.New(session, artifacts)

	// ── Records ──────────────────────────────────────────────────────
	if cfg.Records.Path != "" {
		store, err := records.Open(ctx, cfg.Records.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open records: %w", err)
		}
		runner.Records = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				slog.Warn("records close failed", "error", err)
			}
		}
	}

	// ── Notification ─────────────────────────────────────────────────
	if cfg.Notify.Enabled() {
		runner.Notifier = notify.NewLineNotifier(cfg.Notify)
	} else {
		slog.Warn("no LINE token configured: notifications disabled")
	}

	// ── Webhook ──────────────────────────────────────────────────────
	if cfg.Webhook.Enabled() {
		runner.Events = webhook.NewSender(cfg.Webhook)
		slog.Info("run webhook enabled", "url", cfg.Webhook.URL, "signed", cfg.Webhook.Secret != "")
	}

	return runner, cleanup, nil
}
