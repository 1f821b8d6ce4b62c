package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-upwork-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 3, 5, 14, 30, 0, 250000000, time.UTC)

// readRows returns the directive line and the parsed CSV rows after it.
func readRows(t *testing.T, path string) (string, [][]string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	first, rest, ok := strings.Cut(string(data), "\n")
	require.True(t, ok)
	rows, err := csv.NewReader(strings.NewReader(rest)).ReadAll()
	require.NoError(t, err)
	return first, rows
}

func TestRecordWriter_AppendJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "output.csv")
	w, err := OpenRecords(path, time.UTC)
	require.NoError(t, err)

	jobs := []scraper.Job{
		{
			Keyword: "Data", URL: "https://www.upwork.com/jobs/~1", Title: "Scrape, clean, load",
			JobType: "Hourly", ExperienceLevel: "Expert", Duration: "1 to 3 months",
			Description: "Line one\nline \"two\"", Skills: []string{"Python", "SQL"},
			ClientCountry: "Germany", ScrapedAt: at,
		},
		{
			Keyword: "Data", URL: "N/A", Title: "N/A", JobType: "N/A", ExperienceLevel: "N/A",
			Duration: "N/A", Description: "N/A", ClientCountry: "N/A", ScrapedAt: at,
		},
	}
	n, err := w.AppendJobs(jobs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, w.Flush())

	// rows are visible on disk before Close
	directive, rows := readRows(t, path)
	assert.Equal(t, Directive, directive)
	require.Len(t, rows, 3)
	assert.Equal(t, RecordHeader, rows[0])
	assert.Equal(t, []string{
		"Data", "https://www.upwork.com/jobs/~1", "Scrape, clean, load", "Hourly", "Expert",
		"1 to 3 months", "Line one\nline \"two\"", "Python | SQL", "Germany", "2024-03-05 14:30:00.250000",
	}, rows[1])
	assert.Equal(t, "N/A", rows[2][7])

	require.NoError(t, w.Close())
}

func TestRecordWriter_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	job := scraper.Job{Keyword: "A", URL: "u", Title: "t", ScrapedAt: at}

	for i := 0; i < 2; i++ {
		w, err := OpenRecords(path, time.UTC)
		require.NoError(t, err)
		_, err = w.AppendJobs([]scraper.Job{job})
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	_, rows := readRows(t, path)
	// one header, two identical rows: nothing is deduplicated
	require.Len(t, rows, 3)
	assert.Equal(t, rows[1], rows[2])
}

func TestRunLogWriter_AppendEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	w, err := OpenRunLog(path, time.UTC)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.AppendEntry(scraper.RunLogEntry{
		Keyword: "A", StartedAt: at, FinishedAt: at.Add(1500 * time.Millisecond),
		Success: false, ErrorMessage: "Fetch error: timed out",
	}))
	require.NoError(t, w.AppendEntry(scraper.RunLogEntry{
		Keyword: "B", StartedAt: at, FinishedAt: at.Add(2 * time.Second), Success: true,
	}))
	require.NoError(t, w.Flush())

	directive, rows := readRows(t, path)
	assert.Equal(t, Directive, directive)
	require.Len(t, rows, 3)
	assert.Equal(t, RunLogHeader, rows[0])
	assert.Equal(t, []string{"A", "2024-03-05 14:30:00.250000", "2024-03-05 14:30:01.750000", "1.500", "False", "Fetch error: timed out"}, rows[1])
	assert.Equal(t, []string{"B", "2024-03-05 14:30:00.250000", "2024-03-05 14:30:02.250000", "2.000", "True", ""}, rows[2])
}

func TestRunLogWriter_Timezone(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	row := runLogRow(scraper.RunLogEntry{Keyword: "A", StartedAt: at, FinishedAt: at}, loc)
	assert.Equal(t, "2024-03-05 21:30:00.250000", row[1])
}

func TestOpen_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := OpenRecords(filepath.Join(blocker, "output.csv"), nil)
	assert.Error(t, err)
	_, err = OpenRunLog(filepath.Join(blocker, "log.csv"), nil)
	assert.Error(t, err)
}

func TestFileNames(t *testing.T) {
	out, log := FileNames("output", at)
	assert.Equal(t, filepath.Join("output", "output_05_03_2024_14_30.csv"), out)
	assert.Equal(t, filepath.Join("output", "log_05_03_2024_14_30.csv"), log)
}
