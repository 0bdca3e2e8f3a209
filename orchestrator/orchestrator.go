// Package orchestrator runs a scraping session and ships its diagnostic
// artifacts to object storage when it fails.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
)

// Fetcher produces one snapshot per call.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.AssetSnapshot, error)
}

// ArtifactStore persists a local file under a key.
type ArtifactStore interface {
	Upload(ctx context.Context, key, path string) error
}

// keyLayout is the timestamp part of an artifact key.
const keyLayout = "20060102150405"

// Orchestrator wraps a Fetcher with artifact upload on failure.
type Orchestrator struct {
	fetcher   Fetcher
	artifacts ArtifactStore
	now       func() time.Time
	logger    *slog.Logger
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides time.Now for artifact keys.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator. A nil artifacts store leaves failures
// unannotated.
func New(fetcher Fetcher, artifacts ArtifactStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		artifacts: artifacts,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scrape fetches a snapshot. On a *models.ScrapingFailure, each captured
// artifact is uploaded under errors/<timestamp><ext> and its key recorded on
// the failure, which is then returned as is. An upload failure is returned
// instead as a *models.ArtifactUploadError wrapping the storage error.
func (o *Orchestrator) Scrape(ctx context.Context) (*models.AssetSnapshot, error) {
	snap, err := o.fetcher.Fetch(ctx)
	if err == nil {
		return snap, nil
	}

	var failure *models.ScrapingFailure
	if !errors.As(err, &failure) {
		return nil, err
	}
	if o.artifacts == nil {
		o.logger.Warn("no artifact store configured, skipping upload", "stage", failure.Stage.String())
		return nil, err
	}

	stamp := o.now().Format(keyLayout)

	if failure.ScreenshotPath != "" {
		key, upErr := o.upload(ctx, stamp, failure.ScreenshotPath)
		if upErr != nil {
			return nil, upErr
		}
		failure.ScreenshotKey = key
	}
	if failure.PageSourcePath != "" {
		key, upErr := o.upload(ctx, stamp, failure.PageSourcePath)
		if upErr != nil {
			return nil, upErr
		}
		failure.PageSourceKey = key
	}

	return nil, err
}

func (o *Orchestrator) upload(ctx context.Context, stamp, path string) (string, error) {
	key := ArtifactKey(stamp, path)
	if err := o.artifacts.Upload(ctx, key, path); err != nil {
		o.logger.Error("artifact upload failed", "key", key, "path", path, "error", err)
		var upErr *models.ArtifactUploadError
		if errors.As(err, &upErr) {
			return "", upErr
		}
		return "", &models.ArtifactUploadError{Key: key, Path: path, Err: err}
	}
	o.logger.Info("artifact uploaded", "key", key)
	return key, nil
}

// ArtifactKey is errors/<stamp> followed by the extension of path.
func ArtifactKey(stamp, path string) string {
	return "errors/" + stamp + filepath.Ext(path)
}
