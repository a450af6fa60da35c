// Package catalog holds the crawl pipeline's records and the interfaces it
// needs from persistence and the headless browser.
package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type JobStore interface {
	CreateJob(ctx context.Context, filters CrawlFilters) (*CrawlJob, error)
	UpdateJob(ctx context.Context, id string, u JobUpdate) (*CrawlJob, error)
	GetJob(ctx context.Context, id string) (*CrawlJob, error)
	ListJobs(ctx context.Context, p ListJobsParams) ([]CrawlJob, error)
}

type CourseStore interface {
	// UpsertCourse creates the course or overwrites its mutable fields.
	UpsertCourse(ctx context.Context, c CourseUpsert) (*Course, error)
	GetCourse(ctx context.Context, subject, number string) (*Course, error)
	// FindPrerequisite returns nil, nil when the course has none.
	FindPrerequisite(ctx context.Context, courseID string) (*Prerequisite, error)
	CreatePrerequisite(ctx context.Context, courseID string, in PrerequisiteInput) (*Prerequisite, error)
	UpdatePrerequisite(ctx context.Context, id string, in PrerequisiteInput) (*Prerequisite, error)
}

type Store interface {
	JobStore
	CourseStore
}

// Browser opens one automation session per crawl job.
type Browser interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a single page driven by the crawl. Calls fail on timeout; the
// caller decides whether that is fatal.
type Session interface {
	Goto(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	URL() string
	SelectOption(ctx context.Context, selector, label string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Visible(ctx context.Context, selector string) (bool, error)
	Close() error
}
