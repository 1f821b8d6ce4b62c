// Fetch contexts: run one page fetch in isolation with a hard deadline

package fetchctx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"go-upwork-scraper/internal/cache"
	"go-upwork-scraper/internal/scraper"
)

// ProcessFetcher runs every fetch in a child process that writes the page
// snapshot into the cache directory. A hung or leaking browser dies with the
// child: on timeout or shutdown the whole process group is killed.
type ProcessFetcher struct {
	//Executable defaults to the running binary
	Executable string
	//Args come before "--keyword K --out FILE"
	Args    []string
	Env     []string
	Cache   *cache.Dir
	Timeout time.Duration
	//WaitDelay bounds how long output pipes may linger after a kill
	WaitDelay time.Duration
}

func (p *ProcessFetcher) Fetch(ctx context.Context, keyword string) (string, error) {
	markup, err := p.run(ctx, keyword)
	if err != nil {
		return "", &scraper.FetchError{Keyword: keyword, Err: err}
	}
	return markup, nil
}

func (p *ProcessFetcher) run(ctx context.Context, keyword string) (string, error) {
	if p.Cache == nil {
		return "", errors.New("process fetcher has no cache directory")
	}
	exe := p.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locate executable: %w", err)
		}
		exe = self
	}

	runCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	out := p.Cache.Path(keyword)
	args := append(append([]string{}, p.Args...), "--keyword", keyword, "--out", out)

	cmd := exec.CommandContext(runCtx, exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), p.Env...)
	cmd.WaitDelay = p.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 5 * time.Second
	}
	killProcessGroup(cmd)

	started := time.Now()
	if err := cmd.Run(); err != nil {
		switch {
		case ctx.Err() != nil:
			return "", fmt.Errorf("fetch process stopped: %w", ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("fetch process timed out after %s", p.Timeout)
		}
		return "", fmt.Errorf("fetch process failed: %w", err)
	}
	log.Printf("    ⏱️ Fetch process for '%s' finished in %s", keyword, time.Since(started).Round(time.Millisecond))

	markup, err := p.Cache.Read(keyword)
	if err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return markup, nil
}
