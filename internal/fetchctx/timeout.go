package fetchctx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-upwork-scraper/internal/scraper"
)

type boundedFetcher struct {
	next    scraper.PageFetcher
	timeout time.Duration
}

// WithTimeout runs next in its own goroutine and gives up after timeout.
// The wrapped fetcher sees a cancelled context and must release its own
// resources; the caller never waits past the deadline. A timeout of zero
// or less leaves only the caller's context in charge.
func WithTimeout(next scraper.PageFetcher, timeout time.Duration) scraper.PageFetcher {
	return &boundedFetcher{next: next, timeout: timeout}
}

type fetchResult struct {
	markup string
	err    error
}

func (b *boundedFetcher) Fetch(ctx context.Context, keyword string) (string, error) {
	fctx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	done := make(chan fetchResult, 1)
	go func() {
		markup, err := b.next.Fetch(fctx, keyword)
		done <- fetchResult{markup: markup, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", asFetchError(keyword, res.err)
		}
		return res.markup, nil
	case <-fctx.Done():
		if ctx.Err() != nil {
			return "", &scraper.FetchError{Keyword: keyword, Err: ctx.Err()}
		}
		return "", &scraper.FetchError{Keyword: keyword, Err: fmt.Errorf("timed out after %s", b.timeout)}
	}
}

func asFetchError(keyword string, err error) error {
	var fe *scraper.FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &scraper.FetchError{Keyword: keyword, Err: err}
}
