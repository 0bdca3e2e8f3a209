package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/kamaD-y/dcp-ops-monitor/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time {
	return time.Date(2026, time.October, 19, 9, 30, 15, 0, time.UTC)
}

type fetcherFunc func(ctx context.Context) (*models.AssetSnapshot, error)

func (f fetcherFunc) Fetch(ctx context.Context) (*models.AssetSnapshot, error) { return f(ctx) }

type upload struct{ key, path string }

type fakeStore struct {
	uploads []upload
	err     error
}

func (s *fakeStore) Upload(_ context.Context, key, path string) error {
	if s.err != nil {
		return s.err
	}
	s.uploads = append(s.uploads, upload{key, path})
	return nil
}

func failing(err error) Fetcher {
	return fetcherFunc(func(context.Context) (*models.AssetSnapshot, error) { return nil, err })
}

func TestScrape_Success(t *testing.T) {
	want := &models.AssetSnapshot{Total: models.AssetEntry{AssetValuation: 42}}
	store := &fakeStore{}
	o := New(fetcherFunc(func(context.Context) (*models.AssetSnapshot, error) { return want, nil }), store)

	got, err := o.Scrape(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Empty(t, store.uploads)
}

func TestScrape_LoginFailureUploadsScreenshot(t *testing.T) {
	failure := models.LoginFailed("/tmp/error_login.png", errors.New("timeout"))
	store := &fakeStore{}
	o := New(failing(failure), store, WithClock(fixedNow))

	_, err := o.Scrape(context.Background())

	var sf *models.ScrapingFailure
	require.True(t, errors.As(err, &sf))
	assert.Same(t, failure, sf)
	assert.Equal(t, models.StageLogin, sf.Stage)
	assert.Equal(t, "errors/20261019093015.png", sf.ScreenshotKey)
	assert.Empty(t, sf.PageSourceKey)
	assert.Equal(t, []upload{{"errors/20261019093015.png", "/tmp/error_login.png"}}, store.uploads)
}

func TestScrape_NoArtifacts(t *testing.T) {
	failure := models.LoginFailed("", errors.New("browser crashed"))
	store := &fakeStore{}
	o := New(failing(failure), store)

	_, err := o.Scrape(context.Background())
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, store.uploads)
}

func TestScrape_UploadFailureIsDistinct(t *testing.T) {
	failure := models.PageFetchFailed("/tmp/error_asset_valuation.png", errors.New("timeout"))
	storeErr := errors.New("bucket unreachable")
	o := New(failing(failure), &fakeStore{err: storeErr}, WithClock(fixedNow))

	_, err := o.Scrape(context.Background())

	var upErr *models.ArtifactUploadError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "errors/20261019093015.png", upErr.Key)
	assert.ErrorIs(t, err, storeErr)

	var sf *models.ScrapingFailure
	assert.False(t, errors.As(err, &sf), "upload failure must not be reported as the scraping failure")
	assert.Empty(t, failure.ScreenshotKey)
}

func TestScrape_NonScrapingErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeStore{}
	o := New(failing(boom), store)

	_, err := o.Scrape(context.Background())
	assert.Same(t, boom, err)
	assert.Empty(t, store.uploads)
}

func TestScrape_NilStore(t *testing.T) {
	failure := models.LoginFailed("/tmp/error_login.png", errors.New("timeout"))
	o := New(failing(failure), nil)

	_, err := o.Scrape(context.Background())
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, failure.ScreenshotKey)
}

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "errors/20261019093015.html", ArtifactKey("20261019093015", "/tmp/error_extraction.html"))
	assert.Equal(t, "errors/20261019093015.png", ArtifactKey("20261019093015", "error_login.png"))
}

// maintenanceBrowser logs in fine but serves a page without the valuation layout.
type maintenanceBrowser struct{ closed int }

func (b *maintenanceBrowser) Navigate(context.Context, string) error { return nil }
func (b *maintenanceBrowser) Fill(context.Context, scraper.Locator, string) error { return nil }
func (b *maintenanceBrowser) Click(context.Context, scraper.Locator) error { return nil }
func (b *maintenanceBrowser) WaitFor(context.Context, scraper.Locator) error { return nil }
func (b *maintenanceBrowser) Screenshot(context.Context, string) error { return errors.New("unexpected") }
func (b *maintenanceBrowser) Close() error { b.closed++; return nil }
func (b *maintenanceBrowser) HTML(context.Context) (string, error) {
	return "<html><body><p>ただいまメンテナンス中です</p></body></html>", nil
}

func TestScrape_ExtractionFailureEndToEnd(t *testing.T) {
	browser := &maintenanceBrowser{}
	launch := func(context.Context) (scraper.Browser, error) { return browser, nil }
	creds := models.Credentials{UserID: "u", Password: "p", Birthdate: "19800101", StartURL: "https://portal.example.com/"}
	dir := t.TempDir()

	store := &fakeStore{}
	o := New(scraper.NewSession(launch, creds, dir), store, WithClock(fixedNow))

	snap, err := o.Scrape(context.Background())
	assert.Nil(t, snap)

	var sf *models.ScrapingFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, models.StageExtraction, sf.Stage)

	require.Len(t, store.uploads, 1)
	up := store.uploads[0]
	assert.True(t, strings.HasPrefix(up.key, "errors/"))
	assert.True(t, strings.HasSuffix(up.key, ".html"))
	assert.Equal(t, filepath.Join(dir, "error_extraction.html"), up.path)
	assert.Equal(t, up.key, sf.PageSourceKey)
	assert.Empty(t, sf.ScreenshotKey)

	saved, readErr := os.ReadFile(up.path)
	require.NoError(t, readErr)
	assert.Contains(t, string(saved), "メンテナンス")
	assert.Equal(t, 1, browser.closed)
}
