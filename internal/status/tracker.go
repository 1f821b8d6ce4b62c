// In-memory view of what the runner is doing, for the status endpoint

package status

import (
	"context"
	"sync"
	"time"

	"go-upwork-scraper/internal/runner"
	"go-upwork-scraper/internal/scraper"

	"github.com/google/uuid"
)

type KeywordStatus struct {
	Keyword      string        `json:"keyword"`
	Pass         int           `json:"pass"`
	Stage        scraper.Stage `json:"stage"`
	Success      *bool         `json:"success,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Records      int           `json:"records"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

type Snapshot struct {
	RunID         uuid.UUID           `json:"run_id"`
	StartedAt     time.Time           `json:"started_at"`
	Pass          int                 `json:"pass"`
	Current       string              `json:"current,omitempty"`
	TotalRecords  int                 `json:"total_records"`
	TotalFailures int                 `json:"total_failures"`
	LastPass      *runner.PassSummary `json:"last_pass,omitempty"`
	Keywords      []KeywordStatus     `json:"keywords"`
}

// Tracker is a runner hook. It is written by the runner goroutine and read by
// HTTP handlers, so every access goes through mu.
type Tracker struct {
	mu        sync.RWMutex
	runID     uuid.UUID
	startedAt time.Time
	pass      int
	current   string
	records   int
	failures  int
	lastPass  *runner.PassSummary
	order     []string
	keywords  map[string]*KeywordStatus
}

func NewTracker(runID uuid.UUID, keywords []string, startedAt time.Time) *Tracker {
	t := &Tracker{
		runID:     runID,
		startedAt: startedAt,
		keywords:  make(map[string]*KeywordStatus, len(keywords)),
	}
	for _, kw := range keywords {
		if _, dup := t.keywords[kw]; dup {
			continue
		}
		t.order = append(t.order, kw)
		t.keywords[kw] = &KeywordStatus{Keyword: kw, Stage: scraper.StagePending}
	}
	return t
}

func (t *Tracker) OnStage(pass int, keyword string, stage scraper.Stage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pass = pass
	ks := t.keyword(keyword)
	ks.Pass = pass
	ks.Stage = stage
	if stage == scraper.StageLogged {
		t.current = ""
	} else {
		t.current = keyword
	}
}

func (t *Tracker) AfterKeyword(_ context.Context, entry scraper.RunLogEntry, _ []scraper.Job) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ks := t.keyword(entry.Keyword)
	success := entry.Success
	finished := entry.FinishedAt
	ks.Success = &success
	ks.ErrorMessage = entry.ErrorMessage
	ks.Records = entry.Records
	ks.FinishedAt = &finished

	t.records += entry.Records
	if !entry.Success {
		t.failures++
	}
	return nil
}

func (t *Tracker) AfterPass(_ context.Context, s runner.PassSummary) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastPass = &s
	return nil
}

// keyword must be called with mu held.
func (t *Tracker) keyword(kw string) *KeywordStatus {
	ks, ok := t.keywords[kw]
	if !ok {
		ks = &KeywordStatus{Keyword: kw, Stage: scraper.StagePending}
		t.keywords[kw] = ks
		t.order = append(t.order, kw)
	}
	return ks
}

// Snapshot returns a copy safe to serialize outside the lock.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		RunID:         t.runID,
		StartedAt:     t.startedAt,
		Pass:          t.pass,
		Current:       t.current,
		TotalRecords:  t.records,
		TotalFailures: t.failures,
		Keywords:      make([]KeywordStatus, 0, len(t.order)),
	}
	if t.lastPass != nil {
		lp := *t.lastPass
		s.LastPass = &lp
	}
	for _, kw := range t.order {
		s.Keywords = append(s.Keywords, *t.keywords[kw])
	}
	return s
}
