// Package browser drives headless Chromium through playwright-go.
package browser

import (
	"context"
	"fmt"
	"time"

	"coursecrawler/internal/core/catalog"
	"coursecrawler/internal/logger"

	"github.com/playwright-community/playwright-go"
)

type Options struct {
	Headless        bool
	// UserAgent pins the agent; empty rotates desktop profiles per session.
	UserAgent       string
	NavTimeout      time.Duration
	SelectorTimeout time.Duration
}

// Launcher starts one playwright runtime and browser per session.
type Launcher struct {
	opts Options
	log  *logger.Logger
}

func NewLauncher(opts Options) *Launcher {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if opts.SelectorTimeout <= 0 {
		opts.SelectorTimeout = 10 * time.Second
	}
	return &Launcher{opts: opts, log: logger.New("Browser")}
}

func (l *Launcher) Launch(ctx context.Context) (catalog.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright run: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--no-first-run",
			"--disable-default-apps",
			"--disable-extensions",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	profile := ProfileFor(l.opts.UserAgent)
	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:        playwright.String(profile.UserAgent),
		ExtraHttpHeaders: profile.Headers(),
		Viewport:         &playwright.Size{Width: 1366, Height: 900},
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	l.log.LogDebugf("chromium session started (headless=%v)", l.opts.Headless)
	return &session{pw: pw, browser: b, page: page, opts: l.opts, log: l.log}, nil
}

type session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	opts    Options
	log     *logger.Logger
}

// ms bounds a timeout by the context deadline, in playwright milliseconds.
func ms(ctx context.Context, d time.Duration) *float64 {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func (s *session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   ms(ctx, s.opts.NavTimeout),
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (s *session) WaitFor(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: ms(ctx, s.opts.SelectorTimeout),
	})
}

func (s *session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *session) URL() string { return s.page.URL() }

func (s *session) SelectOption(ctx context.Context, selector, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Locator(selector).First().SelectOption(
		playwright.SelectOptionValues{Labels: &[]string{label}},
		playwright.LocatorSelectOptionOptions{Timeout: ms(ctx, s.opts.SelectorTimeout)},
	)
	return err
}

func (s *session) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: ms(ctx, s.opts.SelectorTimeout),
	})
}

func (s *session) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: ms(ctx, s.opts.SelectorTimeout),
	}); err != nil {
		return err
	}
	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: ms(ctx, s.opts.NavTimeout),
	}); err != nil {
		s.log.LogWarnf("network idle wait after click on %s timed out: %v", selector, err)
	}
	return nil
}

func (s *session) Visible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.page.Locator(selector).First().IsVisible()
}

func (s *session) Close() error {
	var firstErr error
	if err := s.browser.Close(); err != nil {
		firstErr = err
	}
	if err := s.pw.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
