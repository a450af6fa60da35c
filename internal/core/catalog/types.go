package catalog

import (
	"encoding/json"
	"time"
)

// Status of a crawl job. PENDING -> RUNNING -> {COMPLETED, FAILED}.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CrawlFilters are the caller-supplied search filters. Nil means "not applied".
type CrawlFilters struct {
	Term    *string `json:"term,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Query   *string `json:"query,omitempty"`
}

type CrawlJob struct {
	ID           string       `json:"id"`
	Status       Status       `json:"status"`
	Filters      CrawlFilters `json:"filters"`
	PagesFetched int          `json:"pages_fetched"`
	CoursesFound *int         `json:"courses_found,omitempty"`
	CoursesSaved int          `json:"courses_saved"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	ErrorLog     *string      `json:"error_log,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// JobUpdate is a partial update; only non-nil fields are written.
type JobUpdate struct {
	Status       *Status
	PagesFetched *int
	CoursesFound *int
	CoursesSaved *int
	StartedAt    *time.Time
	FinishedAt   *time.Time
	ErrorLog     *string
}

// Apply writes the set fields of u onto j.
func (u JobUpdate) Apply(j *CrawlJob) {
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.PagesFetched != nil {
		j.PagesFetched = *u.PagesFetched
	}
	if u.CoursesFound != nil {
		n := *u.CoursesFound
		j.CoursesFound = &n
	}
	if u.CoursesSaved != nil {
		j.CoursesSaved = *u.CoursesSaved
	}
	if u.StartedAt != nil {
		t := *u.StartedAt
		j.StartedAt = &t
	}
	if u.FinishedAt != nil {
		t := *u.FinishedAt
		j.FinishedAt = &t
	}
	if u.ErrorLog != nil {
		s := *u.ErrorLog
		j.ErrorLog = &s
	}
}

type ListJobsParams struct {
	Status *Status
	Limit  int
}

// CourseListItem is a course stub found on a search results page.
type CourseListItem struct {
	SubjectCode  string  `json:"subject_code"`
	CourseNumber string  `json:"course_number"`
	Title        string  `json:"title"`
	DetailURL    *string `json:"detail_url,omitempty"`
}

func (i CourseListItem) Key() string { return i.SubjectCode + " " + i.CourseNumber }

// CourseDetail is what a detail page yielded. Any optional field may be nil.
type CourseDetail struct {
	SubjectCode      string   `json:"subject_code"`
	CourseNumber     string   `json:"course_number"`
	Title            string   `json:"title"`
	Description      *string  `json:"description,omitempty"`
	CreditMin        *float64 `json:"credit_min,omitempty"`
	CreditMax        *float64 `json:"credit_max,omitempty"`
	PrerequisiteText *string  `json:"prerequisite_text,omitempty"`
	SourceURL        *string  `json:"source_url,omitempty"`
}

type Course struct {
	ID           string    `json:"id"`
	SubjectCode  string    `json:"subject_code"`
	CourseNumber string    `json:"course_number"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	CreditMin    *float64  `json:"credit_min,omitempty"`
	CreditMax    *float64  `json:"credit_max,omitempty"`
	LastSeenTerm *string   `json:"last_seen_term,omitempty"`
	SourceURL    *string   `json:"source_url,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CourseUpsert carries the mutable course fields keyed by subject+number.
type CourseUpsert struct {
	SubjectCode  string
	CourseNumber string
	Title        string
	Description  *string
	CreditMin    *float64
	CreditMax    *float64
	LastSeenTerm *string
	SourceURL    *string
}

type Prerequisite struct {
	ID         string          `json:"id"`
	CourseID   string          `json:"course_id"`
	RawText    string          `json:"raw_text"`
	Parsed     json.RawMessage `json:"parsed,omitempty"`
	Confidence float64         `json:"confidence"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type PrerequisiteInput struct {
	RawText    string
	Parsed     json.RawMessage
	Confidence float64
}
