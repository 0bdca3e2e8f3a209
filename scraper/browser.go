package scraper

import "context"

// Locator identifies one element on the page: a CSS selector, optionally
// narrowed to the element whose trimmed visible text equals Text.
type Locator struct {
	Selector string
	Text     string
}

func (l Locator) String() string {
	if l.Text == "" {
		return l.Selector
	}
	return l.Selector + "[text=" + l.Text + "]"
}

// Browser is the subset of browser automation a Session needs. Element
// lookups block up to the implementation's implicit wait.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, loc Locator, value string) error
	Click(ctx context.Context, loc Locator) error
	WaitFor(ctx context.Context, loc Locator) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Launcher starts a fresh browser owned by the caller.
type Launcher func(ctx context.Context) (Browser, error)
