package crawl

import (
	"errors"
	"strings"

	"coursecrawler/internal/core/catalog"
)

// ErrInvalidParams wraps validation failures of crawl parameters.
var ErrInvalidParams = errors.New("invalid crawl parameters")

// Params are the search filters a caller may set. Nil or blank means the
// filter is not applied. Values are trimmed before the job is recorded, so a
// job's stored filters are the trimmed input and blank filters are stored as
// absent.
type Params struct {
	Term    *string `json:"term,omitempty" validate:"omitempty,max=64"`
	Subject *string `json:"subject,omitempty" validate:"omitempty,max=16"`
	Query   *string `json:"query,omitempty" validate:"omitempty,max=200"`
}

func (p Params) normalize() Params {
	return Params{Term: trimmed(p.Term), Subject: trimmed(p.Subject), Query: trimmed(p.Query)}
}

func (p Params) Filters() catalog.CrawlFilters {
	return catalog.CrawlFilters{Term: p.Term, Subject: p.Subject, Query: p.Query}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

type TaskPayload struct {
	JobID  string `json:"job_id"`
	Params Params `json:"params"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type CreateResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
}

type JobResponse struct {
	Success bool              `json:"success"`
	Job     *catalog.CrawlJob `json:"job"`
}

type JobListResponse struct {
	Success bool               `json:"success"`
	Jobs    []catalog.CrawlJob `json:"jobs"`
}

type CourseResponse struct {
	Success      bool                  `json:"success"`
	Course       *catalog.Course       `json:"course"`
	Prerequisite *catalog.Prerequisite `json:"prerequisite"`
}
