package job

import (
	"context"
	"fmt"
	"time"

	"coursecrawler/internal/core/catalog"
	"coursecrawler/internal/logger"
)

// Service enforces the crawl job state machine on top of a JobStore and
// mirrors every snapshot into the cache. A nil cache means store only.
type Service struct {
	store catalog.JobStore
	cache Cache
	log   *logger.Logger
	now   func() time.Time
}

func NewJobService(store catalog.JobStore, cache Cache) *Service {
	return &Service{store: store, cache: cache, log: logger.New("JobService"), now: time.Now}
}

// Create records a PENDING job with the caller's filters.
func (s *Service) Create(ctx context.Context, filters catalog.CrawlFilters) (*catalog.CrawlJob, error) {
	j, err := s.store.CreateJob(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.mirror(ctx, j)
	return j, nil
}

// Start moves a PENDING job to RUNNING and stamps started_at.
func (s *Service) Start(ctx context.Context, id string) (*catalog.CrawlJob, error) {
	return s.transition(ctx, id, func(j *catalog.CrawlJob) (catalog.JobUpdate, error) {
		if j.Status != catalog.StatusPending {
			return catalog.JobUpdate{}, fmt.Errorf("start job in %s: %w", j.Status, ErrInvalidTransition)
		}
		running := catalog.StatusRunning
		now := s.now().UTC()
		return catalog.JobUpdate{Status: &running, StartedAt: &now}, nil
	})
}

// RecordListing stores the result of the search page.
func (s *Service) RecordListing(ctx context.Context, id string, pagesFetched, coursesFound int) (*catalog.CrawlJob, error) {
	return s.transition(ctx, id, func(j *catalog.CrawlJob) (catalog.JobUpdate, error) {
		if j.Status != catalog.StatusRunning {
			return catalog.JobUpdate{}, fmt.Errorf("record listing in %s: %w", j.Status, ErrInvalidTransition)
		}
		if coursesFound < 0 {
			coursesFound = 0
		}
		saved := clamp(j.CoursesSaved, &coursesFound)
		return catalog.JobUpdate{PagesFetched: &pagesFetched, CoursesFound: &coursesFound, CoursesSaved: &saved}, nil
	})
}

// RecordProgress flushes the running courses_saved count.
func (s *Service) RecordProgress(ctx context.Context, id string, saved int) (*catalog.CrawlJob, error) {
	return s.transition(ctx, id, func(j *catalog.CrawlJob) (catalog.JobUpdate, error) {
		if j.Status != catalog.StatusRunning {
			return catalog.JobUpdate{}, fmt.Errorf("record progress in %s: %w", j.Status, ErrInvalidTransition)
		}
		n := clamp(saved, j.CoursesFound)
		return catalog.JobUpdate{CoursesSaved: &n}, nil
	})
}

// Complete finalizes a RUNNING job with its last saved count.
func (s *Service) Complete(ctx context.Context, id string, saved int) (*catalog.CrawlJob, error) {
	return s.transition(ctx, id, func(j *catalog.CrawlJob) (catalog.JobUpdate, error) {
		if j.Status != catalog.StatusRunning {
			return catalog.JobUpdate{}, fmt.Errorf("complete job in %s: %w", j.Status, ErrInvalidTransition)
		}
		done := catalog.StatusCompleted
		now := s.now().UTC()
		n := clamp(saved, j.CoursesFound)
		return catalog.JobUpdate{Status: &done, FinishedAt: &now, CoursesSaved: &n}, nil
	})
}

// Fail finalizes a PENDING or RUNNING job with an error message. saved < 0
// leaves the stored count alone.
func (s *Service) Fail(ctx context.Context, id string, saved int, cause string) (*catalog.CrawlJob, error) {
	return s.transition(ctx, id, func(j *catalog.CrawlJob) (catalog.JobUpdate, error) {
		failed := catalog.StatusFailed
		now := s.now().UTC()
		u := catalog.JobUpdate{Status: &failed, FinishedAt: &now, ErrorLog: &cause}
		if saved >= 0 {
			n := clamp(saved, j.CoursesFound)
			u.CoursesSaved = &n
		}
		return u, nil
	})
}

// Get reads the cached snapshot, falling back to the store.
func (s *Service) Get(ctx context.Context, id string) (*catalog.CrawlJob, error) {
	if s.cache != nil {
		var j catalog.CrawlJob
		if err := s.cache.CacheGet(ctx, key(id), &j); err == nil && j.ID == id {
			return &j, nil
		}
	}
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (s *Service) List(ctx context.Context, p ListParams) ([]catalog.CrawlJob, error) {
	params, err := p.normalize()
	if err != nil {
		return nil, err
	}
	return s.store.ListJobs(ctx, params)
}

func (s *Service) transition(ctx context.Context, id string, next func(*catalog.CrawlJob) (catalog.JobUpdate, error)) (*catalog.CrawlJob, error) {
	cur, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status.Terminal() {
		return nil, fmt.Errorf("job %s is %s: %w", id, cur.Status, ErrJobFinalized)
	}
	u, err := next(cur)
	if err != nil {
		return nil, err
	}
	j, err := s.store.UpdateJob(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update job %s: %w", id, err)
	}
	s.mirror(ctx, j)
	return j, nil
}

// mirror caches the snapshot and announces the change. Failures are logged;
// the store stays authoritative.
func (s *Service) mirror(ctx context.Context, j *catalog.CrawlJob) {
	if s.cache == nil {
		return
	}
	if err := s.cache.CacheSet(ctx, key(j.ID), j, ttl(j.Status)); err != nil {
		s.log.LogWarnf("cache job %s: %v", j.ID, err)
		return
	}
	if err := s.cache.Publish(ctx, key(j.ID), "updated"); err != nil {
		s.log.LogWarnf("publish job %s: %v", j.ID, err)
	}
}

func clamp(saved int, found *int) int {
	if saved < 0 {
		saved = 0
	}
	if found != nil && saved > *found {
		return *found
	}
	return saved
}
