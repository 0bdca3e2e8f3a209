package scraper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assetPage = `<html><body>
<div class="total"><dl>
<dt>拠出金累計</dt><dd>900,000円</dd>
<dt>評価損益</dt><dd>300,000円</dd>
<dt>資産評価額</dt><dd>1,200,000円</dd>
</dl></div>
<div id="prodInfo"></div>
</body></html>`

var testCreds = models.Credentials{
	UserID:    "user1",
	Password:  "hunter2-secret",
	Birthdate: "19800101",
	StartURL:  "https://portal.example.com/login",
}

// fakeBrowser scripts failures per locator and records every call.
type fakeBrowser struct {
	html          string
	fail          map[string]error
	screenshotErr error

	calls  []string
	filled map[string]string
	closed int

	// cancelOn runs cancel when the call key is recorded.
	cancelOn string
	cancel   context.CancelFunc
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		html:   assetPage,
		fail:   map[string]error{},
		filled: map[string]string{},
	}
}

func (f *fakeBrowser) record(op string, loc Locator) error {
	key := op + " " + loc.String()
	f.calls = append(f.calls, key)
	if key == f.cancelOn && f.cancel != nil {
		f.cancel()
	}
	return f.fail[key]
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.calls = append(f.calls, "navigate "+url)
	return f.fail["navigate"]
}

func (f *fakeBrowser) Fill(_ context.Context, loc Locator, value string) error {
	if err := f.record("fill", loc); err != nil {
		return err
	}
	f.filled[loc.Selector] = value
	return nil
}

func (f *fakeBrowser) Click(ctx context.Context, loc Locator) error {
	if err := f.record("click", loc); err != nil {
		return err
	}
	return ctx.Err()
}

func (f *fakeBrowser) WaitFor(_ context.Context, loc Locator) error {
	return f.record("wait", loc)
}

func (f *fakeBrowser) HTML(context.Context) (string, error) {
	f.calls = append(f.calls, "html")
	return f.html, f.fail["html"]
}

func (f *fakeBrowser) Screenshot(ctx context.Context, path string) error {
	f.calls = append(f.calls, "screenshot")
	if f.screenshotErr != nil {
		return f.screenshotErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (f *fakeBrowser) Close() error {
	f.closed++
	return nil
}

func launcherFor(b *fakeBrowser) Launcher {
	return func(context.Context) (Browser, error) { return b, nil }
}

func newTestSession(t *testing.T, b *fakeBrowser, opts ...SessionOption) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	return NewSession(launcherFor(b), testCreds, dir, opts...), dir
}

func requireFailure(t *testing.T, err error, stage models.Stage) *models.ScrapingFailure {
	t.Helper()
	var sf *models.ScrapingFailure
	require.True(t, errors.As(err, &sf), "expected ScrapingFailure, got %v", err)
	assert.Equal(t, stage, sf.Stage)
	return sf
}

func TestFetch_Success(t *testing.T) {
	b := newFakeBrowser()
	s, _ := newTestSession(t, b)

	snap, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, int64(1_200_000), snap.Total.AssetValuation)
	assert.Equal(t, 1, b.closed)
	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, []State{
		StateStart, StateLoggingIn, StateLoggedIn,
		StateNavigatingToAssetPage, StateOnAssetPage,
		StateLoggingOut, StateDone,
	}, s.Trail())

	assert.Equal(t, "user1", b.filled[`input[name="userId"]`])
	assert.Equal(t, "hunter2-secret", b.filled[`input[name="password"]`])
	assert.Equal(t, "19800101", b.filled[`input[name="birthDate"]`])
	assert.Equal(t, "navigate https://portal.example.com/login", b.calls[0])
	assert.Equal(t, "click a[text=ログアウト]", b.calls[len(b.calls)-1])
}

func TestFetch_LoginFailure(t *testing.T) {
	b := newFakeBrowser()
	b.fail["wait #mainMenu01"] = errors.New("timeout")
	s, dir := newTestSession(t, b)

	snap, err := s.Fetch(context.Background())
	assert.Nil(t, snap)

	sf := requireFailure(t, err, models.StageLogin)
	assert.Equal(t, filepath.Join(dir, "error_login.png"), sf.ScreenshotPath)
	assert.Empty(t, sf.PageSourcePath)
	assert.FileExists(t, sf.ScreenshotPath)
	assert.Equal(t, 1, b.closed)
	assert.Equal(t, StateError, s.State())
	assert.NotContains(t, b.calls, "click a[text=ログアウト]", "no logout before login succeeded")
}

func TestFetch_LoginFailureWithoutScreenshot(t *testing.T) {
	b := newFakeBrowser()
	b.fail["fill input[name=\"password\"]"] = errors.New("element not found")
	b.screenshotErr = errors.New("browser crashed")
	s, _ := newTestSession(t, b)

	_, err := s.Fetch(context.Background())
	sf := requireFailure(t, err, models.StageLogin)
	assert.Empty(t, sf.ScreenshotPath)
	assert.Equal(t, 1, b.closed)
}

func TestFetch_PageFetchFailure(t *testing.T) {
	b := newFakeBrowser()
	b.fail["wait .total"] = errors.New("timeout")
	b.fail["click a[text=ログアウト]"] = errors.New("logout link missing")
	s, dir := newTestSession(t, b)

	_, err := s.Fetch(context.Background())

	sf := requireFailure(t, err, models.StagePageFetch)
	assert.Equal(t, filepath.Join(dir, "error_asset_valuation.png"), sf.ScreenshotPath)
	assert.Contains(t, b.calls, "click a[text=ログアウト]", "best-effort logout attempted")
	assert.Equal(t, 1, b.closed)
	assert.Equal(t, []State{
		StateStart, StateLoggingIn, StateLoggedIn,
		StateNavigatingToAssetPage, StateError,
	}, s.Trail())
}

func TestFetch_ExpiredContextStillCapturesAndLogsOut(t *testing.T) {
	b := newFakeBrowser()
	b.fail["wait .total"] = context.DeadlineExceeded
	s, dir := newTestSession(t, b, WithCleanupTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.cancelOn, b.cancel = "wait .total", cancel
	_, err := s.Fetch(ctx)

	sf := requireFailure(t, err, models.StagePageFetch)
	assert.Equal(t, filepath.Join(dir, "error_asset_valuation.png"), sf.ScreenshotPath)
	assert.FileExists(t, sf.ScreenshotPath)
	assert.Contains(t, b.calls, "click a[text=ログアウト]")
	assert.Equal(t, 1, b.closed)
}

func TestFetch_LogsEveryTransition(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s, _ := newTestSession(t, newFakeBrowser(), WithLogger(logger))

	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	for _, st := range []State{StateLoggingIn, StateLoggedIn, StateNavigatingToAssetPage, StateOnAssetPage, StateLoggingOut, StateDone} {
		assert.Contains(t, buf.String(), `"level":"INFO","msg":"session transition","state":"`+st.String()+`"`)
	}
}

func TestFetch_ExtractionFailure(t *testing.T) {
	b := newFakeBrowser()
	b.html = "<html><body><p>maintenance</p></body></html>"
	s, dir := newTestSession(t, b)

	_, err := s.Fetch(context.Background())

	sf := requireFailure(t, err, models.StageExtraction)
	assert.Empty(t, sf.ScreenshotPath)
	assert.Equal(t, filepath.Join(dir, "error_extraction.html"), sf.PageSourcePath)

	saved, readErr := os.ReadFile(sf.PageSourcePath)
	require.NoError(t, readErr)
	assert.Equal(t, b.html, string(saved))

	var extractErr *models.ExtractionError
	assert.True(t, errors.As(err, &extractErr))
	assert.Contains(t, b.calls, "click a[text=ログアウト]")
	assert.NotContains(t, b.calls, "screenshot")
	assert.Equal(t, 1, b.closed)
}

func TestFetch_LogoutFailureIsNotFatal(t *testing.T) {
	b := newFakeBrowser()
	b.fail["click a[text=ログアウト]"] = errors.New("gone")
	s, _ := newTestSession(t, b)

	snap, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, 1, b.closed)
}

func TestFetch_LaunchFailure(t *testing.T) {
	launch := func(context.Context) (Browser, error) { return nil, errors.New("no chromium") }
	s := NewSession(launch, testCreds, t.TempDir())

	_, err := s.Fetch(context.Background())
	sf := requireFailure(t, err, models.StageLogin)
	assert.Empty(t, sf.ScreenshotPath)
}

func TestFetch_CustomExtractor(t *testing.T) {
	b := newFakeBrowser()
	want := &models.AssetSnapshot{Total: models.AssetEntry{AssetValuation: 1}}
	s, _ := newTestSession(t, b, WithExtractor(func(string) (*models.AssetSnapshot, error) {
		return want, nil
	}))

	got, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestFetch_NeverLogsPassword(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b := newFakeBrowser()
	b.fail["wait #mainMenu01"] = errors.New("timeout")
	s, _ := newTestSession(t, b, WithLogger(logger))

	_, _ = s.Fetch(context.Background())
	assert.Contains(t, buf.String(), "user1")
	assert.NotContains(t, buf.String(), testCreds.Password)
	assert.NotContains(t, buf.String(), testCreds.Birthdate)
}

func TestFetch_EachCallOwnsItsBrowser(t *testing.T) {
	var launched []*fakeBrowser
	launch := func(context.Context) (Browser, error) {
		b := newFakeBrowser()
		launched = append(launched, b)
		return b, nil
	}
	s := NewSession(launch, testCreds, t.TempDir())

	for i := 0; i < 3; i++ {
		_, err := s.Fetch(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, launched, 3)
	for _, b := range launched {
		assert.Equal(t, 1, b.closed)
	}
}

func TestTextPattern(t *testing.T) {
	assert.Equal(t, `/^\s*ログアウト\s*$/`, textPattern("ログアウト"))
	assert.Equal(t, `/^\s*a\.b\s*$/`, textPattern("a.b"))
}

func TestBlockedSet(t *testing.T) {
	set := blockedSet([]string{"Media", "Font", "Script", "Bogus"})
	assert.Len(t, set, 2)
}
