package sink

import (
	"fmt"
	"time"

	"go-upwork-scraper/internal/scraper"
)

var RunLogHeader = []string{
	"Keyword",
	"Scraping Started",
	"Scraping Finished",
	"Time Passed (Seconds)",
	"Status",
	"Error Message",
}

// RunLogWriter appends one row per keyword per pass.
type RunLogWriter struct {
	file *csvFile
	loc  *time.Location
}

func OpenRunLog(path string, loc *time.Location) (*RunLogWriter, error) {
	f, err := openCSV(path, RunLogHeader)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &RunLogWriter{file: f, loc: loc}, nil
}

func (w *RunLogWriter) AppendEntry(e scraper.RunLogEntry) error {
	return w.file.write(runLogRow(e, w.loc))
}

func (w *RunLogWriter) Flush() error { return w.file.Flush() }
func (w *RunLogWriter) Close() error { return w.file.Close() }
func (w *RunLogWriter) Path() string { return w.file.Path() }

func runLogRow(e scraper.RunLogEntry, loc *time.Location) []string {
	status := "False"
	if e.Success {
		status = "True"
	}
	return []string{
		e.Keyword,
		e.StartedAt.In(loc).Format(TimeLayout),
		e.FinishedAt.In(loc).Format(TimeLayout),
		fmt.Sprintf("%.3f", e.Elapsed().Seconds()),
		status,
		e.ErrorMessage,
	}
}
