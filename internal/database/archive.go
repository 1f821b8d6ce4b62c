package database

import (
	"context"

	"go-upwork-scraper/internal/models"
	"go-upwork-scraper/internal/scraper"
)

// Archive is a runner hook copying every keyword outcome into Postgres.
type Archive struct {
	repo *Repository
	run  models.Run
}

func NewArchive(repo *Repository, run models.Run) *Archive {
	return &Archive{repo: repo, run: run}
}

func (a *Archive) AfterKeyword(ctx context.Context, entry scraper.RunLogEntry, jobs []scraper.Job) error {
	return a.repo.SaveKeyword(ctx, keywordRunRow(a.run, entry), jobRows(a.run, entry.Pass, jobs))
}

func keywordRunRow(run models.Run, e scraper.RunLogEntry) models.KeywordRunRow {
	row := models.KeywordRunRow{
		RunID:      run.ID,
		Pass:       e.Pass,
		Keyword:    e.Keyword,
		StartedAt:  e.StartedAt,
		FinishedAt: e.FinishedAt,
		Success:    e.Success,
		Stage:      string(e.Stage),
		Records:    e.Records,
	}
	if e.ErrorMessage != "" {
		msg := e.ErrorMessage
		row.ErrorMessage = &msg
	}
	return row
}

func jobRows(run models.Run, pass int, jobs []scraper.Job) []models.JobRow {
	rows := make([]models.JobRow, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, models.JobRow{
			RunID:           run.ID,
			Pass:            pass,
			Keyword:         j.Keyword,
			URL:             j.URL,
			Title:           j.Title,
			JobType:         j.JobType,
			ExperienceLevel: j.ExperienceLevel,
			Duration:        j.Duration,
			Description:     j.Description,
			Skills:          j.Skills,
			ClientCountry:   j.ClientCountry,
			ScrapedAt:       j.ScrapedAt,
		})
	}
	return rows
}
