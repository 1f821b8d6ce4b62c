package browser

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Options controls how the browser is launched.
type Options struct {
	//Browser is firefox, chromium or webkit
	Browser  string
	Headless bool
	//ProxyServer routes all traffic, e.g. socks5://127.0.0.1:9150 for Tor
	ProxyServer string
	UserAgent   string
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
}

// NewPlaywright starts the playwright driver and launches one browser.
func NewPlaywright(ctx context.Context, opts Options) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}

	var browserType playwright.BrowserType
	switch strings.ToLower(opts.Browser) {
	case "", "firefox":
		browserType = pw.Firefox
	case "chromium", "chrome":
		browserType = pw.Chromium
	case "webkit":
		browserType = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unsupported browser %q", opts.Browser)
	}

	browser, err := browserType.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch %s: %w", browserType.Name(), err)
	}
	log.Printf("🌐 Launched %s (headless=%v, proxy=%q)", browserType.Name(), opts.Headless, opts.ProxyServer)

	return &PlaywrightManager{
		pw:      pw,
		browser: browser,
		opts:    opts,
	}, nil
}

// NewContext opens an isolated browser context, optionally pre-loaded with cookies.
// Callers own the returned context and must close it.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	ctxOpts := playwright.BrowserNewContextOptions{}
	if pm.opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(pm.opts.UserAgent)
	}

	browserCtx, err := pm.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if len(cookies) > 0 {
		if err := browserCtx.AddCookies(cookies); err != nil {
			_ = browserCtx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return browserCtx, nil
}

// Close shuts the browser and the driver down. Safe to call twice.
func (pm *PlaywrightManager) Close() error {
	if pm == nil {
		return nil
	}
	var firstErr error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			firstErr = fmt.Errorf("close browser: %w", err)
		}
		pm.browser = nil
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop playwright: %w", err)
		}
		pm.pw = nil
	}
	return firstErr
}
