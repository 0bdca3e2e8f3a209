// Package job runs one scrape → calculate → persist → notify cycle.
package job

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kamaD-y/dcp-ops-monitor/indicator"
	"github.com/kamaD-y/dcp-ops-monitor/metrics"
	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/kamaD-y/dcp-ops-monitor/notify"
	"github.com/kamaD-y/dcp-ops-monitor/webhook"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Scraper produces the day's snapshot.
type Scraper interface {
	Scrape(ctx context.Context) (*models.AssetSnapshot, error)
}

// Notifier delivers messages to the user.
type Notifier interface {
	Notify(ctx context.Context, messages []models.NotificationMessage) error
}

// SnapshotStore keeps the raw snapshot per day.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, date time.Time, snap *models.AssetSnapshot) error
}

// RecordStore keeps per-product rows and answers valuation history.
type RecordStore interface {
	SaveDailyRecords(ctx context.Context, records []models.AssetRecord) error
	DailyValuations(ctx context.Context, until time.Time, days int) ([]models.DailyValuation, error)
}

// EventSender receives one event per finished run.
type EventSender interface {
	Deliver(ctx context.Context, event *webhook.Event) error
}

// Presigner turns an artifact key into a URL the notification can show.
type Presigner interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

// Result is the outcome of one run. Snapshot and Indicators are set as far
// as the run got.
type Result struct {
	RunID      string
	Snapshot   *models.AssetSnapshot
	Indicators *models.OperationalIndicators
	Duration   time.Duration
}

// Runner wires the collaborators. Only Scraper is required; any other nil
// collaborator is skipped.
type Runner struct {
	Scraper   Scraper
	Notifier  Notifier
	Snapshots SnapshotStore
	Records   RecordStore
	Presigner Presigner
	Events    EventSender
	Metrics   *metrics.Metrics

	// Location decides the calendar day of a run. Default: UTC.
	Location *time.Location
	// HistoryDays is how many recorded dates the summary trend shows.
	HistoryDays int
	// Now overrides time.Now.
	Now func() time.Time

	running atomic.Bool
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run performs one cycle. Runs never overlap: a concurrent call returns
// ErrRunInProgress immediately.
//
// Flow:
//
//  1. Scrape                   – failure: notify failure, return it
//  2. Indicators for today     – failure: notify failure, return it
//  3. Persist snapshot/records – failure: notify failure, return it
//  4. History                  – failure: logged, summary without trend
//  5. Notify summary           – failure: returned
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	res := &Result{RunID: uuid.NewString()}
	logger := slog.Default().With("run_id", res.RunID)
	started := time.Now()
	today := r.now().In(r.location())

	err := r.run(ctx, logger, today, res)

	res.Duration = time.Since(started)
	if r.Metrics != nil {
		r.Metrics.ObserveRun(started, err)
	}
	r.publish(ctx, logger, res, today, err)
	if err != nil {
		logger.Error("run failed", "error", err, "duration_ms", res.Duration.Milliseconds())
		return res, err
	}
	logger.Info("run completed", "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, today time.Time, res *Result) error {
	// ── 1. Scrape ─────────────────────────────────────────────────────
	logger.Info("run started", "date", today.Format(time.DateOnly))
	snap, err := r.Scraper.Scrape(ctx)
	if err != nil {
		r.notifyFailure(ctx, logger, err, today)
		return err
	}
	res.Snapshot = snap
	logger.Info("snapshot retrieved",
		"products", len(snap.Products),
		"asset_valuation", snap.Total.AssetValuation,
	)

	// ── 2. Indicators ─────────────────────────────────────────────────
	ind, err := indicator.Calculate(snap.Total, today)
	if err != nil {
		r.notifyFailure(ctx, logger, err, today)
		return err
	}
	res.Indicators = &ind
	if r.Metrics != nil {
		r.Metrics.ObserveSnapshot(snap.Total, ind)
	}

	// ── 3. Persist ────────────────────────────────────────────────────
	if r.Snapshots != nil {
		if err := r.Snapshots.SaveSnapshot(ctx, today, snap); err != nil {
			r.notifyFailure(ctx, logger, err, today)
			return err
		}
	}
	if r.Records != nil {
		if err := r.Records.SaveDailyRecords(ctx, models.RecordsFromSnapshot(today, snap)); err != nil {
			r.notifyFailure(ctx, logger, err, today)
			return err
		}
	}

	// ── 4. History ────────────────────────────────────────────────────
	var history []models.DailyValuation
	if r.Records != nil && r.HistoryDays > 0 {
		history, err = r.Records.DailyValuations(ctx, today, r.HistoryDays)
		if err != nil {
			logger.Warn("valuation history unavailable", "error", err)
			history = nil
		}
	}

	// ── 5. Notify ─────────────────────────────────────────────────────
	if r.Notifier == nil {
		return nil
	}
	err = r.Notifier.Notify(ctx, []models.NotificationMessage{
		{Text: notify.FormatSummary(snap, ind, history)},
	})
	if r.Metrics != nil {
		r.Metrics.ObserveNotification("summary", err)
	}
	return err
}

// notifyFailure reports cause. Delivery problems are logged, never returned.
func (r *Runner) notifyFailure(ctx context.Context, logger *slog.Logger, cause error, at time.Time) {
	if r.Notifier == nil {
		return
	}

	msg := models.NotificationMessage{Text: notify.FormatFailure(cause, at)}

	var sf *models.ScrapingFailure
	if r.Presigner != nil && errors.As(cause, &sf) && sf.ScreenshotKey != "" {
		url, err := r.Presigner.PresignedURL(ctx, sf.ScreenshotKey)
		if err != nil {
			logger.Warn("screenshot url unavailable", "key", sf.ScreenshotKey, "error", err)
		} else {
			msg.ImageURL = url
		}
	}

	err := r.Notifier.Notify(ctx, []models.NotificationMessage{msg})
	if r.Metrics != nil {
		r.Metrics.ObserveNotification("failure", err)
	}
	if err != nil {
		logger.Error("failure notification not delivered", "error", err)
	}
}

// publish sends the run event. It outlives a cancelled run context so a
// timed-out run is still reported.
func (r *Runner) publish(ctx context.Context, logger *slog.Logger, res *Result, at time.Time, runErr error) {
	if r.Events == nil {
		return
	}
	ev := webhook.NewEvent(res.RunID, at, res.Snapshot, res.Indicators, runErr)
	if err := r.Events.Deliver(context.WithoutCancel(ctx), ev); err != nil {
		logger.Warn("webhook delivery failed", "event", ev.Type, "error", err)
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}
