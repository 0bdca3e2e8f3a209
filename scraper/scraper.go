package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/kamaD-y/dcp-ops-monitor/config"
	"github.com/ysmood/gson"
)

const acceptLanguage = "ja-JP,ja;q=0.9,en;q=0.8"

// RodBrowser drives one dedicated Chromium process through the DevTools
// protocol. It is not safe for concurrent use.
type RodBrowser struct {
	launcher     *launcher.Launcher
	browser      *rod.Browser
	page         *rod.Page
	router       *rod.HijackRouter
	implicitWait time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// NewLauncher returns a Launcher that starts a new Chromium process per call.
func NewLauncher(browserCfg config.BrowserConfig, implicitWait time.Duration) Launcher {
	return func(ctx context.Context) (Browser, error) {
		return LaunchRod(ctx, browserCfg, implicitWait)
	}
}

// LaunchRod launches Chromium, connects to it and opens the single page
// used for the session.
func LaunchRod(ctx context.Context, browserCfg config.BrowserConfig, implicitWait time.Duration) (*RodBrowser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}

	// ── Launch flags ─────────────────────────────────────────────────
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	if browserCfg.WindowSize != "" {
		l.Set(flags.Flag("window-size"), strings.Replace(browserCfg.WindowSize, "x", ",", 1))
	}
	if browserCfg.Stealth {
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	rb := &RodBrowser{launcher: l, implicitWait: implicitWait}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	rb.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = rb.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	rb.page = page

	// ── Stealth injection (before any navigation) ────────────────────
	if browserCfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if browserCfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      browserCfg.UserAgent,
			AcceptLanguage: acceptLanguage,
		}); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{"Accept-Language": gson.New(acceptLanguage)},
	}.Call(page)

	// ── Resource blocking ────────────────────────────────────────────
	rb.router = setupHijack(page, browserCfg.BlockedResourceTypes)

	return rb, nil
}

// Navigate loads url and waits for the load event.
func (b *RodBrowser) Navigate(ctx context.Context, url string) error {
	p := b.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

// Fill types value into the element at loc.
func (b *RodBrowser) Fill(ctx context.Context, loc Locator, value string) error {
	el, cancel, err := b.element(ctx, loc)
	if err != nil {
		return err
	}
	defer cancel()
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input into %s: %w", loc, err)
	}
	return nil
}

// Click left-clicks the element at loc.
func (b *RodBrowser) Click(ctx context.Context, loc Locator) error {
	el, cancel, err := b.element(ctx, loc)
	if err != nil {
		return err
	}
	defer cancel()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// WaitFor blocks until an element matches loc or the implicit wait elapses.
func (b *RodBrowser) WaitFor(ctx context.Context, loc Locator) error {
	_, cancel, err := b.element(ctx, loc)
	if err != nil {
		return err
	}
	cancel()
	return nil
}

// HTML returns the current document serialized.
func (b *RodBrowser) HTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// Screenshot writes a PNG of the viewport to path.
func (b *RodBrowser) Screenshot(ctx context.Context, path string) error {
	data, err := b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Close stops the hijack router, closes the browser and removes its
// temporary profile. Only the first call has any effect.
func (b *RodBrowser) Close() error {
	b.closeOnce.Do(func() {
		if b.router != nil {
			_ = b.router.Stop()
		}
		if b.browser != nil {
			b.closeErr = b.browser.Close()
		}
		if b.closeErr != nil {
			b.launcher.Kill()
		}
		b.launcher.Cleanup()
	})
	return b.closeErr
}

// element resolves loc within the implicit wait. The returned cancel
// releases the lookup deadline and must be called once the element is used.
func (b *RodBrowser) element(ctx context.Context, loc Locator) (*rod.Element, context.CancelFunc, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, b.implicitWait)
	p := b.page.Context(lookupCtx)

	var (
		el  *rod.Element
		err error
	)
	if loc.Text != "" {
		el, err = p.ElementR(loc.Selector, textPattern(loc.Text))
	} else {
		el, err = p.Element(loc.Selector)
	}
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("element %s not found: %w", loc, err)
	}
	return el, cancel, nil
}

// textPattern builds the JS regex literal rod's ElementR expects for an
// exact, whitespace-tolerant text match.
func textPattern(text string) string {
	return `/^\s*` + regexp.QuoteMeta(text) + `\s*$/`
}
