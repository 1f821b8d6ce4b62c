package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-upwork-scraper/internal/config"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configFlag := &cli.StringFlag{
		Name:  "config",
		Usage: "path to the YAML config",
		Value: config.DefaultPath,
	}

	app := &cli.Command{
		Name:  "scraper",
		Usage: "scrape Upwork search results for a keyword list into CSV files",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "cycle through the keyword list until stopped",
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{
						Name:  "max-passes",
						Usage: "stop after this many passes (0 = run forever)",
					},
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "stop after this long (0 = run forever)",
					},
				},
				Action: runAction,
			},
			{
				Name:   "fetch",
				Usage:  "render one search page and write its markup to a file",
				Hidden: true,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "keyword",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Required: true,
					},
				},
				Action: fetchAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// fetchBudget bounds one whole fetch. Navigation and the results wait each
// get the configured timeout; the rest covers browser start-up.
// A zero fetch timeout leaves the whole fetch unbounded.
func fetchBudget(cfg *config.Config) time.Duration {
	if cfg.FetchTimeout() == 0 {
		return 0
	}
	return 2*cfg.FetchTimeout() + 30*time.Second
}
