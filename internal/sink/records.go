package sink

import (
	"time"

	"go-upwork-scraper/internal/scraper"
)

var RecordHeader = []string{
	"Keyword",
	"Job Link",
	"Job Title",
	"Job Type",
	"Experience",
	"Duration",
	"Job Description",
	"Skills Required",
	"Client Country",
	"Time Scraped",
}

// RecordWriter appends job records to the output file. Rows are never
// rewritten: scraping the same listing twice yields two rows.
type RecordWriter struct {
	file *csvFile
	loc  *time.Location
}

// OpenRecords opens (or creates) the output file. loc may be nil for local time.
func OpenRecords(path string, loc *time.Location) (*RecordWriter, error) {
	f, err := openCSV(path, RecordHeader)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &RecordWriter{file: f, loc: loc}, nil
}

// AppendJobs returns the number of rows handed to the writer before any error.
func (w *RecordWriter) AppendJobs(jobs []scraper.Job) (int, error) {
	for i, j := range jobs {
		if err := w.file.write(recordRow(j, w.loc)); err != nil {
			return i, err
		}
	}
	return len(jobs), nil
}

func (w *RecordWriter) Flush() error { return w.file.Flush() }
func (w *RecordWriter) Close() error { return w.file.Close() }
func (w *RecordWriter) Path() string { return w.file.Path() }

func recordRow(j scraper.Job, loc *time.Location) []string {
	return []string{
		j.Keyword,
		j.URL,
		j.Title,
		j.JobType,
		j.ExperienceLevel,
		j.Duration,
		j.Description,
		j.SkillsText(),
		j.ClientCountry,
		j.ScrapedAt.In(loc).Format(TimeLayout),
	}
}
