package database

import (
	"context"
	"fmt"
	"time"

	"go-upwork-scraper/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// Poolers in transaction mode (PgBouncer, Supabase) choke on prepared
	// statements, so skip the statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS scrape_runs (
	id         UUID PRIMARY KEY,
	hostname   TEXT NOT NULL,
	keywords   TEXT[] NOT NULL,
	started_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scraped_jobs (
	id               BIGSERIAL PRIMARY KEY,
	run_id           UUID NOT NULL REFERENCES scrape_runs(id),
	pass             INT NOT NULL,
	keyword          TEXT NOT NULL,
	url              TEXT NOT NULL,
	title            TEXT NOT NULL,
	job_type         TEXT NOT NULL,
	experience_level TEXT NOT NULL,
	duration         TEXT NOT NULL,
	description      TEXT NOT NULL,
	skills           TEXT[] NOT NULL DEFAULT '{}',
	client_country   TEXT NOT NULL,
	scraped_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scraped_jobs_url_idx ON scraped_jobs (url);

CREATE TABLE IF NOT EXISTS keyword_runs (
	id            BIGSERIAL PRIMARY KEY,
	run_id        UUID NOT NULL REFERENCES scrape_runs(id),
	pass          INT NOT NULL,
	keyword       TEXT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL,
	success       BOOLEAN NOT NULL,
	error_message TEXT,
	stage         TEXT NOT NULL,
	records       INT NOT NULL
);`

// EnsureSchema creates the archive tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ---------------- RUN OPERATIONS ----------------

func (r *Repository) StartRun(ctx context.Context, run models.Run) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO scrape_runs (id, hostname, keywords, started_at) VALUES ($1, $2, $3, $4)",
		run.ID, run.Hostname, run.Keywords, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// ---------------- JOB OPERATIONS ----------------

var jobColumns = []string{
	"run_id", "pass", "keyword", "url", "title", "job_type", "experience_level",
	"duration", "description", "skills", "client_country", "scraped_at",
}

// SaveKeyword archives one keyword's records and its run log entry in one
// transaction. Rows are only ever inserted.
func (r *Repository) SaveKeyword(ctx context.Context, entry models.KeywordRunRow, jobs []models.JobRow) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(jobs) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"scraped_jobs"}, jobColumns, pgx.CopyFromSlice(len(jobs), func(i int) ([]any, error) {
			j := jobs[i]
			skills := j.Skills
			if skills == nil {
				skills = []string{}
			}
			return []any{j.RunID, j.Pass, j.Keyword, j.URL, j.Title, j.JobType, j.ExperienceLevel,
				j.Duration, j.Description, skills, j.ClientCountry, j.ScrapedAt}, nil
		}))
		if err != nil {
			return fmt.Errorf("failed to save jobs: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO keyword_runs (run_id, pass, keyword, started_at, finished_at, success, error_message, stage, records)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.RunID, entry.Pass, entry.Keyword, entry.StartedAt, entry.FinishedAt,
		entry.Success, entry.ErrorMessage, entry.Stage, entry.Records)
	if err != nil {
		return fmt.Errorf("failed to save keyword run: %w", err)
	}

	return tx.Commit(ctx)
}

// CountJobs returns how many rows a run archived, mostly for checks and tests.
func (r *Repository) CountJobs(ctx context.Context, run models.Run) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM scraped_jobs WHERE run_id = $1", run.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}
