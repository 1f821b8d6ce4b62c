package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"go-upwork-scraper/internal/cache"
	"go-upwork-scraper/internal/config"
	"go-upwork-scraper/internal/database"
	"go-upwork-scraper/internal/dedup"
	"go-upwork-scraper/internal/fetchctx"
	"go-upwork-scraper/internal/filter"
	"go-upwork-scraper/internal/models"
	"go-upwork-scraper/internal/reporter"
	"go-upwork-scraper/internal/runner"
	"go-upwork-scraper/internal/scraper"
	"go-upwork-scraper/internal/scraper/upwork"
	"go-upwork-scraper/internal/server"
	"go-upwork-scraper/internal/sink"
	"go-upwork-scraper/internal/status"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.Printf("🔧 Config loaded. %d keywords, isolation=%s", len(cfg.Keywords), cfg.Isolation)

	if d := cmd.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	startedAt := time.Now().In(loc)

	cacheDir, err := cache.Open(cfg.CacheDir)
	if err != nil {
		return err
	}
	unlock, err := cacheDir.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	//sinks are the only thing the run cannot live without
	outputPath, logPath := sink.FileNames(cfg.OutputDir, startedAt)
	records, err := sink.OpenRecords(outputPath, loc)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer closeLogged(records.Close, outputPath)
	runLog, err := sink.OpenRunLog(logPath, loc)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLogged(runLog.Close, logPath)
	log.Printf("📁 Writing records to %s and run log to %s", outputPath, logPath)

	extractor, err := upwork.NewExtractor(cfg.SiteOrigin)
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := newFetcher(ctx, cfg, configPath, cacheDir)
	if err != nil {
		return err
	}
	defer closeFetcher()

	hostname, _ := os.Hostname()
	run := models.NewRun(hostname, cfg.Keywords, startedAt)
	log.Printf("🆔 Run %s", run.ID)

	tracker := status.NewTracker(run.ID, cfg.Keywords, startedAt)
	hooks := []runner.Hook{tracker}

	if cfg.DatabaseURL != "" {
		repo, err := connectArchive(ctx, cfg.DatabaseURL, run)
		if err != nil {
			log.Printf("⚠️ Archive disabled: %v", err)
		} else {
			defer repo.Close()
			hooks = append(hooks, database.NewArchive(repo, run))
			log.Println("🗄️ Archiving to Postgres")
		}
	}

	if cfg.TelegramEnabled() {
		matcher, err := filter.NewMatcher(cfg.Notify.Include, cfg.Notify.Exclude, cfg.Notify.MinScore)
		if err != nil {
			return err
		}
		seen := dedup.NewJobCache(cfg.CacheDir, cfg.SeenRetention())
		bot, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID, matcher, seen)
		if err != nil {
			log.Printf("⚠️ Telegram disabled: %v", err)
		} else {
			hooks = append(hooks, bot)
			log.Println("🤖 Telegram Bot initialized.")
		}
	}

	r, err := runner.New(runner.Options{
		Keywords: cfg.Keywords,
		Delay:    cfg.InterKeywordDelay(),
	}, fetcher, extractor, records, runLog, cacheDir, hooks...)
	if err != nil {
		return err
	}

	err = supervise(ctx, r, cmd.Int("max-passes"), cfg.StatusAddr, tracker)
	log.Println("🏁 Execution finished.")
	return err
}

type passRunner interface {
	Run(ctx context.Context) error
	RunPass(ctx context.Context, pass int) (runner.PassSummary, error)
}

// supervise runs the scrape loop and, when addr is set, the status server next
// to it. The server goes down with the loop; a server failure is logged and
// never stops the loop.
func supervise(ctx context.Context, r passRunner, maxPasses int, addr string, tracker *status.Tracker) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		log.Println("🚀 Starting Upwork scraper...")
		if maxPasses > 0 {
			for pass := 1; pass <= maxPasses; pass++ {
				if _, err := r.RunPass(gctx, pass); err != nil {
					return stopped(err)
				}
			}
			return nil
		}
		return stopped(r.Run(gctx))
	})

	if addr != "" {
		g.Go(func() error {
			if err := server.Run(gctx, addr, server.NewRouter(tracker)); err != nil {
				log.Printf("⚠️ Status server disabled: %v", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// stopped treats cancellation and the --duration deadline as a normal exit.
func stopped(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func newFetcher(ctx context.Context, cfg *config.Config, configPath string, cacheDir *cache.Dir) (scraper.PageFetcher, func(), error) {
	if cfg.Isolation == config.IsolationProcess {
		return &fetchctx.ProcessFetcher{
			Args:    []string{"fetch", "--config", configPath},
			Cache:   cacheDir,
			Timeout: fetchBudget(cfg),
		}, func() {}, nil
	}

	pm, f, err := newBrowserFetcher(ctx, cfg, cacheDir)
	if err != nil {
		return nil, nil, err
	}
	return fetchctx.WithTimeout(f, fetchBudget(cfg)), func() { pm.Close() }, nil
}

func connectArchive(ctx context.Context, dsn string, run models.Run) (*database.Repository, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	repo, err := database.ConnectDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	if err := repo.StartRun(ctx, run); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

func closeLogged(closeFn func() error, path string) {
	if err := closeFn(); err != nil {
		log.Printf("⚠️ Could not close %s: %v", path, err)
	}
}
