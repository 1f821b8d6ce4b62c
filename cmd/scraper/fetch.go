package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go-upwork-scraper/internal/browser"
	"go-upwork-scraper/internal/cache"
	"go-upwork-scraper/internal/config"
	"go-upwork-scraper/internal/scraper/upwork"
	"go-upwork-scraper/utils"

	"github.com/urfave/cli/v3"
)

// fetchAction is the isolated fetch context: it runs in a child process
// started by the run command and dies with its browser.
func fetchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	keyword := cmd.String("keyword")
	out := cmd.String("out")

	pm, fetcher, err := newBrowserFetcher(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer pm.Close()

	markup, err := fetcher.Fetch(ctx, keyword)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(markup), 0644); err != nil {
		return fmt.Errorf("write page source: %w", err)
	}
	log.Printf("  💾 Saved %d bytes for '%s'", len(markup), keyword)
	return nil
}

func newBrowserFetcher(ctx context.Context, cfg *config.Config, cacheDir *cache.Dir) (*browser.PlaywrightManager, *upwork.BrowserFetcher, error) {
	pm, err := browser.NewPlaywright(ctx, browser.Options{
		Browser:     cfg.Browser,
		Headless:    cfg.IsHeadless(),
		ProxyServer: cfg.Proxy(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init Playwright: %w", err)
	}

	cookies, err := browser.LoadCookies(cfg.CookiesPath)
	if err != nil {
		log.Printf("⚠️ Could not load cookies: %v. Continuing.", err)
	} else if len(cookies) > 0 {
		log.Printf("🍪 Loaded %d cookies", len(cookies))
	}

	return pm, upwork.NewBrowserFetcher(pm, upwork.FetcherConfig{
		Origin:      cfg.SiteOrigin,
		Timeout:     cfg.FetchTimeout(),
		Cookies:     cookies,
		Screenshots: utils.NewScreenShotDebugger(cfg.ScreenshotDir),
		Cache:       cacheDir,
	}), nil
}
