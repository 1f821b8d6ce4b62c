// Drive the scrape loop: keyword -> fetch -> extract -> append -> log
// One worker, keywords in list order, passes forever until the context ends

package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-upwork-scraper/internal/scraper"
)

type Extractor interface {
	Extract(rawHTML, keyword string, capturedAt time.Time) ([]scraper.Job, error)
}

// RecordSink and RunLogSink are append-only; Flush makes appended rows durable.
// AppendJobs reports how many rows it accepted, also when it fails partway.
type RecordSink interface {
	AppendJobs(jobs []scraper.Job) (int, error)
	Flush() error
}

type RunLogSink interface {
	AppendEntry(entry scraper.RunLogEntry) error
	Flush() error
}

// Releaser drops the keyword's cached page snapshot.
type Releaser interface {
	Release(keyword string)
}

// Hook runs after a keyword's entry has been flushed. Hook errors are logged
// and never affect the pass.
type Hook interface {
	AfterKeyword(ctx context.Context, entry scraper.RunLogEntry, jobs []scraper.Job) error
}

// PassHook is implemented by hooks that also want a summary of each pass.
type PassHook interface {
	AfterPass(ctx context.Context, summary PassSummary) error
}

// StageObserver is implemented by hooks that track progress inside a keyword.
type StageObserver interface {
	OnStage(pass int, keyword string, stage scraper.Stage)
}

type PassSummary struct {
	Pass       int
	StartedAt  time.Time
	FinishedAt time.Time
	Keywords   int
	Succeeded  int
	Failed     int
	Records    int
}

type Options struct {
	Keywords []string
	//Delay is the pause after every keyword
	Delay time.Duration
	//Now and Sleep are swapped out in tests
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

type Runner struct {
	opts      Options
	fetcher   scraper.PageFetcher
	extractor Extractor
	records   RecordSink
	runLog    RunLogSink
	cache     Releaser
	hooks     []Hook
}

func New(opts Options, fetcher scraper.PageFetcher, extractor Extractor, records RecordSink, runLog RunLogSink, cache Releaser, hooks ...Hook) (*Runner, error) {
	if len(opts.Keywords) == 0 {
		return nil, errors.New("no keywords to scrape")
	}
	if fetcher == nil || extractor == nil || records == nil || runLog == nil {
		return nil, errors.New("fetcher, extractor and both sinks are required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Runner{
		opts:      opts,
		fetcher:   fetcher,
		extractor: extractor,
		records:   records,
		runLog:    runLog,
		cache:     cache,
		hooks:     hooks,
	}, nil
}

// Run cycles through the keyword list forever. It only returns once ctx is
// done, with the context's error.
func (r *Runner) Run(ctx context.Context) error {
	for pass := 1; ; pass++ {
		if _, err := r.RunPass(ctx, pass); err != nil {
			return err
		}
	}
}

// RunPass processes every keyword once, in list order. The only error it
// returns is ctx's; keyword failures end up in the run log.
func (r *Runner) RunPass(ctx context.Context, pass int) (PassSummary, error) {
	summary := PassSummary{Pass: pass, StartedAt: r.opts.Now()}
	log.Printf("🔄 Pass %d: %d keywords", pass, len(r.opts.Keywords))

	for i, keyword := range r.opts.Keywords {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		log.Printf("▶️ [%d/%d] %s", i+1, len(r.opts.Keywords), keyword)

		entry, _ := r.ProcessKeyword(ctx, pass, keyword)
		summary.Keywords++
		summary.Records += entry.Records
		if entry.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}

		if err := r.opts.Sleep(ctx, r.opts.Delay); err != nil {
			return summary, err
		}
	}

	summary.FinishedAt = r.opts.Now()
	log.Printf("🏁 Pass %d done: %d ok, %d failed, %d records", pass, summary.Succeeded, summary.Failed, summary.Records)
	for _, h := range r.hooks {
		if ph, ok := h.(PassHook); ok {
			if err := ph.AfterPass(ctx, summary); err != nil {
				log.Printf("⚠️ Pass hook failed: %v", err)
			}
		}
	}
	return summary, nil
}

// ProcessKeyword fetches, extracts and records one keyword. It always appends
// exactly one run log entry and always releases the keyword's cache file.
func (r *Runner) ProcessKeyword(ctx context.Context, pass int, keyword string) (scraper.RunLogEntry, []scraper.Job) {
	if r.cache != nil {
		defer r.cache.Release(keyword)
	}

	entry := scraper.RunLogEntry{
		Pass:      pass,
		Keyword:   keyword,
		StartedAt: r.opts.Now(),
	}
	jobs := r.scrape(ctx, &entry)
	entry.Records = len(jobs)

	var writeErr error
	if len(jobs) > 0 {
		//rows accepted before a failure are still flushed; Records counts them
		n, err := r.records.AppendJobs(jobs)
		if err != nil {
			entry.Records = n
			writeErr = fmt.Errorf("append records: %w", err)
			entry.Success = false
			entry.ErrorMessage = "Write error: " + err.Error()
		}
	}
	entry.FinishedAt = r.opts.Now()

	if err := r.runLog.AppendEntry(entry); err != nil {
		writeErr = errors.Join(writeErr, fmt.Errorf("append run log: %w", err))
	}
	if err := r.records.Flush(); err != nil {
		writeErr = errors.Join(writeErr, err)
	}
	if err := r.runLog.Flush(); err != nil {
		writeErr = errors.Join(writeErr, err)
	}
	if writeErr != nil {
		log.Printf("❌ Could not persist results for '%s': %v", keyword, writeErr)
	}
	r.notify(pass, keyword, scraper.StageLogged)

	if entry.Success {
		log.Printf("✅ '%s': %d jobs in %s", keyword, entry.Records, entry.Elapsed().Round(time.Millisecond))
	} else {
		log.Printf("❌ '%s': %s", keyword, entry.ErrorMessage)
	}

	for _, h := range r.hooks {
		if err := h.AfterKeyword(ctx, entry, jobs); err != nil {
			log.Printf("⚠️ Hook failed for '%s': %v", keyword, err)
		}
	}
	return entry, jobs
}

// scrape runs the fetch and parse stages and fills in the outcome on entry.
func (r *Runner) scrape(ctx context.Context, entry *scraper.RunLogEntry) []scraper.Job {
	r.setStage(entry, scraper.StageFetching)
	markup, err := r.fetcher.Fetch(ctx, entry.Keyword)
	if err != nil {
		entry.ErrorMessage = "Fetch error: " + err.Error()
		r.setStage(entry, scraper.StageFetchFailed)
		return nil
	}
	r.setStage(entry, scraper.StageFetched)

	r.setStage(entry, scraper.StageParsing)
	jobs, err := r.extractor.Extract(markup, entry.Keyword, r.opts.Now())
	if err != nil {
		entry.ErrorMessage = "Parse error: " + err.Error()
		r.setStage(entry, scraper.StageParseFailed)
		return nil
	}
	entry.Success = true
	r.setStage(entry, scraper.StageParsed)
	return jobs
}

func (r *Runner) setStage(entry *scraper.RunLogEntry, stage scraper.Stage) {
	entry.Stage = stage
	r.notify(entry.Pass, entry.Keyword, stage)
}

func (r *Runner) notify(pass int, keyword string, stage scraper.Stage) {
	for _, h := range r.hooks {
		if o, ok := h.(StageObserver); ok {
			o.OnStage(pass, keyword, stage)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
