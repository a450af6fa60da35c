package postgres

import (
	"context"
	"fmt"

	"coursecrawler/internal/core/catalog"

	"github.com/jackc/pgx/v5"
)

const jobColumns = `id::text, status, term, subject, query, pages_fetched, courses_found,
	courses_saved, started_at, finished_at, error_log, created_at, updated_at`

func scanJob(row pgx.Row) (*catalog.CrawlJob, error) {
	var j catalog.CrawlJob
	var status string
	err := row.Scan(&j.ID, &status, &j.Filters.Term, &j.Filters.Subject, &j.Filters.Query,
		&j.PagesFetched, &j.CoursesFound, &j.CoursesSaved, &j.StartedAt, &j.FinishedAt,
		&j.ErrorLog, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Status = catalog.Status(status)
	return &j, nil
}

func (db *DB) CreateJob(ctx context.Context, f catalog.CrawlFilters) (*catalog.CrawlJob, error) {
	j, err := scanJob(db.pool.QueryRow(ctx,
		`INSERT INTO crawl_jobs (status, term, subject, query)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+jobColumns,
		string(catalog.StatusPending), f.Term, f.Subject, f.Query,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create crawl job: %w", err)
	}
	return j, nil
}

func (db *DB) UpdateJob(ctx context.Context, id string, u catalog.JobUpdate) (*catalog.CrawlJob, error) {
	if !validID(id) {
		return nil, fmt.Errorf("job %s: %w", id, catalog.ErrNotFound)
	}
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}
	j, err := scanJob(db.pool.QueryRow(ctx,
		`UPDATE crawl_jobs SET
		    status        = COALESCE($2, status),
		    pages_fetched = COALESCE($3, pages_fetched),
		    courses_found = COALESCE($4, courses_found),
		    courses_saved = COALESCE($5, courses_saved),
		    started_at    = COALESCE($6, started_at),
		    finished_at   = COALESCE($7, finished_at),
		    error_log     = COALESCE($8, error_log),
		    updated_at    = NOW()
		 WHERE id = $1::uuid
		 RETURNING `+jobColumns,
		id, status, u.PagesFetched, u.CoursesFound, u.CoursesSaved, u.StartedAt, u.FinishedAt, u.ErrorLog,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("job %s: %w", id, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update crawl job: %w", err)
	}
	return j, nil
}

func (db *DB) GetJob(ctx context.Context, id string) (*catalog.CrawlJob, error) {
	if !validID(id) {
		return nil, fmt.Errorf("job %s: %w", id, catalog.ErrNotFound)
	}
	j, err := scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM crawl_jobs WHERE id = $1::uuid`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("job %s: %w", id, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get crawl job: %w", err)
	}
	return j, nil
}

func (db *DB) ListJobs(ctx context.Context, p catalog.ListJobsParams) ([]catalog.CrawlJob, error) {
	var status *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM crawl_jobs
		 WHERE ($1::text IS NULL OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]catalog.CrawlJob, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list crawl jobs: %w", err)
	}
	return jobs, nil
}
