package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestMemoryStore_UpsertCourseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.UpsertCourse(ctx, CourseUpsert{SubjectCode: "EECS", CourseNumber: "280", Title: "Programming"})
	require.NoError(t, err)
	second, err := s.UpsertCourse(ctx, CourseUpsert{SubjectCode: "EECS", CourseNumber: "280", Title: "Programming and Intro Data Structures"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, s.CourseCount())

	got, err := s.GetCourse(ctx, "EECS", "280")
	require.NoError(t, err)
	assert.Equal(t, "Programming and Intro Data Structures", got.Title)
}

func TestMemoryStore_UpsertOverwritesOptionalFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	min := 4.0

	_, err := s.UpsertCourse(ctx, CourseUpsert{SubjectCode: "MATH", CourseNumber: "115", Title: "Calculus I", CreditMin: &min, LastSeenTerm: strp("Fall 2025")})
	require.NoError(t, err)
	_, err = s.UpsertCourse(ctx, CourseUpsert{SubjectCode: "MATH", CourseNumber: "115", Title: "Calculus I", LastSeenTerm: strp("Winter 2026")})
	require.NoError(t, err)

	got, err := s.GetCourse(ctx, "MATH", "115")
	require.NoError(t, err)
	assert.Nil(t, got.CreditMin)
	require.NotNil(t, got.LastSeenTerm)
	assert.Equal(t, "Winter 2026", *got.LastSeenTerm)
}

func TestMemoryStore_UpsertRequiresNaturalKey(t *testing.T) {
	_, err := NewMemoryStore().UpsertCourse(context.Background(), CourseUpsert{SubjectCode: "EECS"})
	assert.Error(t, err)
}

func TestMemoryStore_GetCourseNotFound(t *testing.T) {
	_, err := NewMemoryStore().GetCourse(context.Background(), "NOPE", "100")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_JobLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	j, err := s.CreateJob(ctx, CrawlFilters{Term: strp("Winter 2026"), Subject: strp("ASIAN")})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, j.Status)
	assert.NotEmpty(t, j.ID)

	running := StatusRunning
	now := time.Now()
	found := 12
	_, err = s.UpdateJob(ctx, j.ID, JobUpdate{Status: &running, StartedAt: &now, CoursesFound: &found})
	require.NoError(t, err)

	got, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	require.NotNil(t, got.CoursesFound)
	assert.Equal(t, 12, *got.CoursesFound)
	assert.Equal(t, 0, got.CoursesSaved)
	assert.Equal(t, "ASIAN", *got.Filters.Subject)
	assert.Nil(t, got.Filters.Query)

	_, err = s.UpdateJob(ctx, "missing", JobUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	var ids []string
	for i := 0; i < 3; i++ {
		j, err := s.CreateJob(ctx, CrawlFilters{})
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}
	failed := StatusFailed
	_, err := s.UpdateJob(ctx, ids[0], JobUpdate{Status: &failed})
	require.NoError(t, err)

	all, err := s.ListJobs(ctx, ListJobsParams{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)

	limited, err := s.ListJobs(ctx, ListJobsParams{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	onlyFailed, err := s.ListJobs(ctx, ListJobsParams{Status: &failed})
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, ids[0], onlyFailed[0].ID)
}

func TestMemoryStore_Prerequisites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c, err := s.UpsertCourse(ctx, CourseUpsert{SubjectCode: "EECS", CourseNumber: "281", Title: "Data Structures"})
	require.NoError(t, err)

	none, err := s.FindPrerequisite(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	p, err := s.CreatePrerequisite(ctx, c.ID, PrerequisiteInput{RawText: "EECS 280", Parsed: []byte(`{"raw":"EECS 280"}`), Confidence: 0.4})
	require.NoError(t, err)

	updated, err := s.UpdatePrerequisite(ctx, p.ID, PrerequisiteInput{RawText: "EECS 280 and EECS 203", Confidence: 0.7})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)

	found, err := s.FindPrerequisite(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "EECS 280 and EECS 203", found.RawText)
	assert.Equal(t, 0.7, found.Confidence)

	_, err = s.UpdatePrerequisite(ctx, "missing", PrerequisiteInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentCreatePrerequisiteKeepsOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c, err := s.UpsertCourse(ctx, CourseUpsert{SubjectCode: "STATS", CourseNumber: "250", Title: "Intro Stats"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.CreatePrerequisite(ctx, c.ID, PrerequisiteInput{RawText: "MATH 105 or higher"})
		}()
	}
	wg.Wait()

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Len(t, s.prereqs, 1)
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, Status("bogus").Valid())
}
