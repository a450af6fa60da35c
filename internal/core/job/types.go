package job

import (
	"context"
	"errors"
	"fmt"

	"coursecrawler/internal/core/catalog"
)

var (
	// ErrJobFinalized is returned for any write to a COMPLETED or FAILED job.
	ErrJobFinalized = errors.New("job is finalized")
	// ErrInvalidTransition is returned when a write does not fit the job's current state.
	ErrInvalidTransition = errors.New("invalid job state transition")
	ErrInvalidQuery      = errors.New("invalid job query")
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Cache mirrors job snapshots for polling and notifies subscribers.
type Cache interface {
	CacheGet(ctx context.Context, key string, dest interface{}) error
	CacheSet(ctx context.Context, key string, val interface{}, ttlSeconds int) error
	Publish(ctx context.Context, channel, message string) error
}

// ListParams is the query accepted by List, bound from the HTTP query string.
type ListParams struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
}

func (p ListParams) normalize() (catalog.ListJobsParams, error) {
	out := catalog.ListJobsParams{Limit: p.Limit}
	if out.Limit <= 0 {
		out.Limit = DefaultListLimit
	}
	if out.Limit > MaxListLimit {
		out.Limit = MaxListLimit
	}
	if p.Status != "" {
		s := catalog.Status(p.Status)
		if !s.Valid() {
			return out, fmt.Errorf("unknown status %q: %w", p.Status, ErrInvalidQuery)
		}
		out.Status = &s
	}
	return out, nil
}

func key(id string) string { return "catalog:job:" + id }

func ttl(s catalog.Status) int {
	if s.Terminal() {
		return 3600
	}
	return 600
}
