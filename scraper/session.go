package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/extractor"
	"github.com/kamaD-y/dcp-ops-monitor/models"
)

// Portal layout.
var (
	userIDField     = Locator{Selector: `input[name="userId"]`}
	passwordField   = Locator{Selector: `input[name="password"]`}
	birthdateField  = Locator{Selector: `input[name="birthDate"]`}
	loginButton     = Locator{Selector: "#btnLogin"}
	mainMenu        = Locator{Selector: "#mainMenu01"}
	valuationMarker = Locator{Selector: ".total"}
	logoutLink      = Locator{Selector: "a", Text: "ログアウト"}
)

// Local artifact file names.
const (
	loginScreenshot     = "error_login.png"
	valuationScreenshot = "error_asset_valuation.png"
	extractionSource    = "error_extraction.html"
)

// defaultCleanupTimeout bounds a failure screenshot or a logout.
const defaultCleanupTimeout = 10 * time.Second

// State is a step of the session state machine.
type State int

const (
	StateStart State = iota
	StateLoggingIn
	StateLoggedIn
	StateNavigatingToAssetPage
	StateOnAssetPage
	StateLoggingOut
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedIn:
		return "logged_in"
	case StateNavigatingToAssetPage:
		return "navigating_to_asset_page"
	case StateOnAssetPage:
		return "on_asset_page"
	case StateLoggingOut:
		return "logging_out"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Extractor converts the valuation page into a snapshot.
type Extractor func(pageContent string) (*models.AssetSnapshot, error)

// Session logs into the portal, reads the valuation page and logs out.
//
// Every Fetch launches its own browser and closes it exactly once before
// returning. A Session must not be used by concurrent Fetch calls.
type Session struct {
	launch      Launcher
	creds       models.Credentials
	artifactDir string
	extract     Extractor
	logger      *slog.Logger

	cleanupTimeout time.Duration

	state State
	trail []State
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithExtractor replaces extractor.Extract.
func WithExtractor(fn Extractor) SessionOption {
	return func(s *Session) { s.extract = fn }
}

// WithCleanupTimeout bounds each failure screenshot and logout. They run
// even after the Fetch context is done, as long as the browser is alive.
func WithCleanupTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.cleanupTimeout = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a Session that writes failure artifacts to artifactDir.
func NewSession(launch Launcher, creds models.Credentials, artifactDir string, opts ...SessionOption) *Session {
	s := &Session{
		launch:      launch,
		creds:       creds,
		artifactDir: artifactDir,
		extract:     extractor.Extract,
		logger:      slog.Default(),

		cleanupTimeout: defaultCleanupTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state reached by the last Fetch.
func (s *Session) State() State {
	return s.state
}

// Trail returns the states visited by the last Fetch, in order.
func (s *Session) Trail() []State {
	return append([]State(nil), s.trail...)
}

// Fetch runs one login session and returns the extracted snapshot. Any
// failure is a *models.ScrapingFailure carrying local artifact paths.
//
// Lifecycle:
//
//  1. Launch          – acquire a dedicated browser
//  2. DEFER: close    – released exactly once on every path
//  3. Login           – fill the form, submit, wait for the main menu
//  4. Asset page      – open the valuation page, wait for the total region
//  5. Extract         – parse the live page content
//  6. Logout          – best-effort, never fails the fetch
func (s *Session) Fetch(ctx context.Context) (snap *models.AssetSnapshot, err error) {
	s.state = StateStart
	s.trail = []State{StateStart}

	// ── 1. Launch ─────────────────────────────────────────────────────
	browser, err := s.launch(ctx)
	if err != nil {
		return nil, s.fail(models.LoginFailed("", fmt.Errorf("launch browser: %w", err)))
	}

	// ── 2. Guaranteed release ─────────────────────────────────────────
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			s.logger.Warn("browser close failed", "error", cerr)
		}
		s.logger.Debug("browser closed")
	}()

	// ── 3. Login ──────────────────────────────────────────────────────
	s.enter(StateLoggingIn)
	if err := s.login(ctx, browser); err != nil {
		shot := s.screenshot(ctx, browser, loginScreenshot)
		return nil, s.fail(models.LoginFailed(shot, err))
	}
	s.enter(StateLoggedIn)

	// ── 4. Asset page ─────────────────────────────────────────────────
	s.enter(StateNavigatingToAssetPage)
	pageContent, err := s.openAssetPage(ctx, browser)
	if err != nil {
		shot := s.screenshot(ctx, browser, valuationScreenshot)
		s.logout(ctx, browser)
		return nil, s.fail(models.PageFetchFailed(shot, err))
	}
	s.enter(StateOnAssetPage)

	// ── 5. Extract ────────────────────────────────────────────────────
	snap, err = s.extract(pageContent)
	if err != nil {
		source := s.savePageSource(pageContent)
		s.logout(ctx, browser)
		return nil, s.fail(models.ExtractionFailed(source, err))
	}

	// ── 6. Logout ─────────────────────────────────────────────────────
	s.enter(StateLoggingOut)
	s.logout(ctx, browser)
	s.enter(StateDone)

	return snap, nil
}

func (s *Session) login(ctx context.Context, b Browser) error {
	s.logger.Info("login start", "credentials", s.creds)

	if err := b.Navigate(ctx, s.creds.StartURL); err != nil {
		return err
	}
	if err := b.Fill(ctx, userIDField, s.creds.UserID); err != nil {
		return err
	}
	if err := b.Fill(ctx, passwordField, s.creds.Password); err != nil {
		return err
	}
	if err := b.Fill(ctx, birthdateField, s.creds.Birthdate); err != nil {
		return err
	}
	if err := b.Click(ctx, loginButton); err != nil {
		return err
	}
	if err := b.WaitFor(ctx, mainMenu); err != nil {
		return fmt.Errorf("post-login marker: %w", err)
	}

	s.logger.Info("login end")
	return nil
}

func (s *Session) openAssetPage(ctx context.Context, b Browser) (string, error) {
	if err := b.Click(ctx, mainMenu); err != nil {
		return "", err
	}
	if err := b.WaitFor(ctx, valuationMarker); err != nil {
		return "", fmt.Errorf("valuation marker: %w", err)
	}
	return b.HTML(ctx)
}

// logout clicks the logout link. Failure is logged only.
func (s *Session) logout(ctx context.Context, b Browser) {
	ctx, cancel := s.cleanupContext(ctx)
	defer cancel()

	if err := b.Click(ctx, logoutLink); err != nil {
		s.logger.Warn("logout failed", "error", err)
		return
	}
	s.logger.Info("logged out")
}

// screenshot captures the current page, returning "" when the browser
// cannot produce one.
func (s *Session) screenshot(ctx context.Context, b Browser, name string) string {
	ctx, cancel := s.cleanupContext(ctx)
	defer cancel()

	path := filepath.Join(s.artifactDir, name)
	if err := b.Screenshot(ctx, path); err != nil {
		s.logger.Warn("screenshot capture failed", "path", path, "error", err)
		return ""
	}
	return path
}

// cleanupContext detaches from ctx's cancellation so an expired run still
// leaves its artifact and logs out.
func (s *Session) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
}

func (s *Session) savePageSource(content string) string {
	path := filepath.Join(s.artifactDir, extractionSource)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		s.logger.Warn("page source capture failed", "path", path, "error", err)
		return ""
	}
	return path
}

func (s *Session) enter(next State) {
	s.logger.Info("session transition", "state", next.String(), "from", s.state.String())
	s.state = next
	s.trail = append(s.trail, next)
}

func (s *Session) fail(f *models.ScrapingFailure) error {
	s.logger.Error("scraping failed",
		"stage", f.Stage.String(),
		"state", s.state.String(),
		"screenshot", f.ScreenshotPath,
		"page_source", f.PageSourcePath,
		"error", f.Err,
	)
	s.enter(StateError)
	return f
}
