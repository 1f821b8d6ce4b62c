package models

import (
	"time"

	"github.com/google/uuid"
)

// Run is one process lifetime of the scraper; every archived row points at it.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Hostname  string    `json:"hostname"`
	Keywords  []string  `json:"keywords"`
	StartedAt time.Time `json:"started_at"`
}

func NewRun(hostname string, keywords []string, startedAt time.Time) Run {
	return Run{
		ID:        uuid.New(),
		Hostname:  hostname,
		Keywords:  keywords,
		StartedAt: startedAt,
	}
}

// JobRow mirrors the scraped_jobs table. Sentinel values are stored as-is so
// the archive matches the output file.
type JobRow struct {
	RunID           uuid.UUID `json:"run_id"`
	Pass            int       `json:"pass"`
	Keyword         string    `json:"keyword"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	JobType         string    `json:"job_type"`
	ExperienceLevel string    `json:"experience_level"`
	Duration        string    `json:"duration"`
	Description     string    `json:"description"`
	Skills          []string  `json:"skills"`
	ClientCountry   string    `json:"client_country"`
	ScrapedAt       time.Time `json:"scraped_at"`
}

// KeywordRunRow mirrors the keyword_runs table.
type KeywordRunRow struct {
	RunID        uuid.UUID `json:"run_id"`
	Pass         int       `json:"pass"`
	Keyword      string    `json:"keyword"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	Stage        string    `json:"stage"`
	Records      int       `json:"records"`
}
