// Shared types for the scraping pipeline
// Keep fetchers, extractors and sinks speaking the same language

package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotAvailable is written for any field that could not be located or parsed.
const NotAvailable = "N/A"

// SkillSeparator joins skill badges in the Skills Required column.
const SkillSeparator = " | "

// ErrUnreadable means the raw page could not be parsed as markup at all.
var ErrUnreadable = errors.New("page source is unreadable")

// Job is one listing extracted from a search result page.
// It is built once during extraction and never modified afterwards.
type Job struct {
	Keyword         string
	URL             string
	Title           string
	JobType         string
	ExperienceLevel string
	Duration        string
	Description     string
	Skills          []string
	ClientCountry   string
	ScrapedAt       time.Time
}

// SkillsText renders the skills the way the output file stores them.
func (j Job) SkillsText() string {
	if len(j.Skills) == 0 {
		return NotAvailable
	}
	return strings.Join(j.Skills, SkillSeparator)
}

// PageFetcher returns the rendered markup of the search page for a keyword.
type PageFetcher interface {
	Fetch(ctx context.Context, keyword string) (string, error)
}

// FetchError wraps anything that went wrong while retrieving a page:
// navigation, timeouts, a missing results marker or a crashed fetch process.
type FetchError struct {
	Keyword string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Keyword, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Stage is where a keyword's processing ended up in the current pass.
type Stage string

const (
	StagePending     Stage = "pending"
	StageFetching    Stage = "fetching"
	StageFetched     Stage = "fetched"
	StageFetchFailed Stage = "fetch_failed"
	StageParsing     Stage = "parsing"
	StageParsed      Stage = "parsed"
	StageParseFailed Stage = "parse_failed"
	StageLogged      Stage = "logged"
)

// RunLogEntry is the outcome of one keyword in one pass.
type RunLogEntry struct {
	Pass         int
	Keyword      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Success      bool
	ErrorMessage string
	Stage        Stage
	Records      int
}

// Elapsed is the wall time spent on the keyword.
func (e RunLogEntry) Elapsed() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}
