package upwork

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go-upwork-scraper/internal/browser"
	"go-upwork-scraper/internal/cache"
	"go-upwork-scraper/internal/scraper"
	"go-upwork-scraper/utils"

	"github.com/playwright-community/playwright-go"
)

// ResultsMarker is present once the search results have rendered.
const ResultsMarker = ".job-tile-title"

// SearchURL builds the most-recent-first search page for keyword.
func SearchURL(origin, keyword string) string {
	if origin == "" {
		origin = DefaultOrigin
	}
	q := strings.ReplaceAll(url.QueryEscape(strings.ToLower(strings.TrimSpace(keyword))), "+", "%20")
	return fmt.Sprintf("%s/nx/jobs/search/?q=%s&sort=recency", strings.TrimRight(origin, "/"), q)
}

type FetcherConfig struct {
	Origin string
	//Timeout bounds navigation and the wait for ResultsMarker; 0 waits forever
	Timeout time.Duration
	Cookies []playwright.OptionalCookie
	//Screenshots is optional; nil disables debug captures
	Screenshots *utils.ScreenShotDebugger
	//Cache is optional; when set the snapshot is also written there
	Cache *cache.Dir
}

// BrowserFetcher renders search pages in a real browser.
// Every keyword gets a fresh browser context so cookies, storage and
// a wedged page never leak into the next keyword.
type BrowserFetcher struct {
	manager *browser.PlaywrightManager
	cfg     FetcherConfig
}

func NewBrowserFetcher(manager *browser.PlaywrightManager, cfg FetcherConfig) *BrowserFetcher {
	if cfg.Origin == "" {
		cfg.Origin = DefaultOrigin
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	return &BrowserFetcher{
		manager: manager,
		cfg:     cfg,
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, keyword string) (string, error) {
	markup, err := f.fetch(ctx, keyword)
	if err != nil {
		return "", &scraper.FetchError{Keyword: keyword, Err: err}
	}
	if f.cfg.Cache != nil {
		if err := f.cfg.Cache.Write(keyword, markup); err != nil {
			log.Printf("⚠️ Could not write cache file for '%s': %v", keyword, err)
		}
	}
	return markup, nil
}

func (f *BrowserFetcher) fetch(ctx context.Context, keyword string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browserCtx, err := f.manager.NewContext(f.cfg.Cookies)
	if err != nil {
		return "", err
	}
	defer browserCtx.Close()

	// closing the context aborts any in-flight playwright call
	stop := context.AfterFunc(ctx, func() { _ = browserCtx.Close() })
	defer stop()

	page, err := browserCtx.NewPage()
	if err != nil {
		return "", fmt.Errorf("could not create page: %w", err)
	}

	timeoutMs := playwright.Float(float64(f.cfg.Timeout.Milliseconds()))
	searchURL := SearchURL(f.cfg.Origin, keyword)
	log.Printf("  🔍 Navigating: %s", searchURL)

	if _, err := page.Goto(searchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMs,
	}); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("navigate to %s: %w", searchURL, err)
	}

	//wait till the result tiles are rendered
	if err := page.Locator(ResultsMarker).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: timeoutMs,
	}); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		title, _ := page.Title()
		f.cfg.Screenshots.CaptureAndLog(page, "upwork-no-results-"+cache.Slug(keyword), fmt.Sprintf("🚨 Upwork: results marker missing for '%s' (title %q)", keyword, title))
		if errors.Is(err, playwright.ErrTimeout) {
			return "", fmt.Errorf("results did not load within %s", f.cfg.Timeout)
		}
		return "", fmt.Errorf("wait for results: %w", err)
	}

	if err := browser.HumanScroll(page); err != nil {
		log.Printf("    ⚠️ Scroll failed: %v", err)
	}
	browser.RandomDelay(500, 1000)

	markup, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return markup, nil
}
