package database

import (
	"context"
	"os"
	"testing"
	"time"

	"go-upwork-scraper/internal/models"
	"go-upwork-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func TestKeywordRunRow(t *testing.T) {
	run := models.NewRun("host", []string{"A"}, at)

	ok := keywordRunRow(run, scraper.RunLogEntry{Pass: 2, Keyword: "A", Success: true, Stage: scraper.StageParsed, Records: 3})
	assert.Equal(t, run.ID, ok.RunID)
	assert.Equal(t, 2, ok.Pass)
	assert.Equal(t, "parsed", ok.Stage)
	assert.Nil(t, ok.ErrorMessage)

	failed := keywordRunRow(run, scraper.RunLogEntry{Keyword: "A", ErrorMessage: "Fetch error: boom"})
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "Fetch error: boom", *failed.ErrorMessage)
}

func TestJobRows(t *testing.T) {
	run := models.NewRun("host", []string{"A"}, at)
	rows := jobRows(run, 4, []scraper.Job{
		{Keyword: "A", URL: "u1", Title: "t1", Skills: []string{"Go"}, ScrapedAt: at},
		{Keyword: "A", URL: scraper.NotAvailable, Title: "t2", ScrapedAt: at},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[1].Pass)
	assert.Equal(t, run.ID, rows[0].RunID)
	assert.Equal(t, []string{"Go"}, rows[0].Skills)
	assert.Equal(t, "N/A", rows[1].URL)
	assert.NotNil(t, jobRows(run, 1, nil))
}

// Needs a scratch database: TEST_DATABASE_URL=postgres://... go test ./internal/database
func TestArchive_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := ConnectDB(ctx, dsn)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.EnsureSchema(ctx))

	run := models.NewRun("test", []string{"A"}, at)
	require.NoError(t, repo.StartRun(ctx, run))

	archive := NewArchive(repo, run)
	jobs := []scraper.Job{{Keyword: "A", URL: "u", Title: "t", ScrapedAt: at}}
	entry := scraper.RunLogEntry{Pass: 1, Keyword: "A", StartedAt: at, FinishedAt: at, Success: true, Records: 1}

	// the archive is append-only too
	require.NoError(t, archive.AfterKeyword(ctx, entry, jobs))
	require.NoError(t, archive.AfterKeyword(ctx, entry, jobs))

	n, err := repo.CountJobs(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
