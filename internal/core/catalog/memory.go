package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used by tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]*CrawlJob
	courses map[string]*Course // keyed by subject+number
	prereqs map[string]*Prerequisite
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*CrawlJob),
		courses: make(map[string]*Course),
		prereqs: make(map[string]*Prerequisite),
		now:     time.Now,
	}
}

func courseKey(subject, number string) string { return subject + "\x00" + number }

func (m *MemoryStore) CreateJob(_ context.Context, filters CrawlFilters) (*CrawlJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	j := &CrawlJob{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		Filters:   copyFilters(filters),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[j.ID] = j
	out := *j
	return &out, nil
}

func (m *MemoryStore) UpdateJob(_ context.Context, id string, u JobUpdate) (*CrawlJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	u.Apply(j)
	j.UpdatedAt = m.now().UTC()
	out := *j
	return &out, nil
}

func (m *MemoryStore) GetJob(_ context.Context, id string) (*CrawlJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	out := *j
	return &out, nil
}

func (m *MemoryStore) ListJobs(_ context.Context, p ListJobsParams) ([]CrawlJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CrawlJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		if p.Status != nil && j.Status != *p.Status {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (m *MemoryStore) UpsertCourse(_ context.Context, in CourseUpsert) (*Course, error) {
	if in.SubjectCode == "" || in.CourseNumber == "" {
		return nil, fmt.Errorf("upsert course: subject and number are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := courseKey(in.SubjectCode, in.CourseNumber)
	c, ok := m.courses[k]
	if !ok {
		c = &Course{ID: uuid.New().String(), SubjectCode: in.SubjectCode, CourseNumber: in.CourseNumber}
		m.courses[k] = c
	}
	c.Title = in.Title
	c.Description = in.Description
	c.CreditMin = in.CreditMin
	c.CreditMax = in.CreditMax
	c.LastSeenTerm = in.LastSeenTerm
	c.SourceURL = in.SourceURL
	c.UpdatedAt = m.now().UTC()
	out := *c
	return &out, nil
}

func (m *MemoryStore) GetCourse(_ context.Context, subject, number string) (*Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[courseKey(subject, number)]
	if !ok {
		return nil, fmt.Errorf("course %s %s: %w", subject, number, ErrNotFound)
	}
	out := *c
	return &out, nil
}

// CourseCount reports how many distinct courses are stored.
func (m *MemoryStore) CourseCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.courses)
}

func (m *MemoryStore) FindPrerequisite(_ context.Context, courseID string) (*Prerequisite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.prereqs {
		if p.CourseID == courseID {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreatePrerequisite(_ context.Context, courseID string, in PrerequisiteInput) (*Prerequisite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// one current record per course: a concurrent create becomes an update
	for _, p := range m.prereqs {
		if p.CourseID == courseID {
			m.write(p, in)
			out := *p
			return &out, nil
		}
	}
	p := &Prerequisite{ID: uuid.New().String(), CourseID: courseID}
	m.write(p, in)
	m.prereqs[p.ID] = p
	out := *p
	return &out, nil
}

func (m *MemoryStore) UpdatePrerequisite(_ context.Context, id string, in PrerequisiteInput) (*Prerequisite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prereqs[id]
	if !ok {
		return nil, fmt.Errorf("prerequisite %s: %w", id, ErrNotFound)
	}
	m.write(p, in)
	out := *p
	return &out, nil
}

func (m *MemoryStore) write(p *Prerequisite, in PrerequisiteInput) {
	p.RawText = in.RawText
	p.Parsed = append([]byte(nil), in.Parsed...)
	p.Confidence = in.Confidence
	p.UpdatedAt = m.now().UTC()
}

func copyFilters(f CrawlFilters) CrawlFilters {
	return CrawlFilters{Term: cloneStr(f.Term), Subject: cloneStr(f.Subject), Query: cloneStr(f.Query)}
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
