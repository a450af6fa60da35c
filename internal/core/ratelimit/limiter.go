// Package ratelimit spaces out requests to the catalog site with random jitter.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultMinDelay = 1000 * time.Millisecond
	DefaultMaxDelay = 3000 * time.Millisecond
)

// Limiter suspends callers for a duration drawn uniformly from [min, max].
type Limiter struct {
	min, max time.Duration

	mu  sync.Mutex
	rnd *rand.Rand

	sleep func(ctx context.Context, d time.Duration)
}

// New returns a limiter over [min, max]. Zero bounds fall back to the
// defaults and an inverted window is swapped.
func New(min, max time.Duration) *Limiter {
	if min <= 0 && max <= 0 {
		min, max = DefaultMinDelay, DefaultMaxDelay
	}
	if min < 0 {
		min = 0
	}
	if max < min {
		min, max = max, min
	}
	return &Limiter{
		min:   min,
		max:   max,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepCtx,
	}
}

// Wait blocks for the next jittered delay. It never fails; a cancelled
// context just ends the wait early.
func (l *Limiter) Wait(ctx context.Context) {
	l.sleep(ctx, l.Next())
}

// Next draws the next delay without sleeping.
func (l *Limiter) Next() time.Duration {
	span := l.max - l.min
	if span <= 0 {
		return l.min
	}
	l.mu.Lock()
	n := l.rnd.Int63n(int64(span) + 1)
	l.mu.Unlock()
	return l.min + time.Duration(n)
}

func (l *Limiter) bounds() (time.Duration, time.Duration) { return l.min, l.max }

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
