// Package ratelimit provides fixed-window request limiting keyed by client
// API key. Up to N requests are allowed per discrete 60-second window; the
// counter resets at window boundaries.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is the fixed limiting interval.
const Window = time.Minute

// Info describes the limiter state after a call to Allow, for populating
// rate limit response headers.
type Info struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // meaningful only when denied
}

// Limiter decides whether a request identified by key may proceed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, Info, error)
}

type record struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is the default in-process limiter: one map guarded by one
// mutex. Records live for the process lifetime; counters reset to zero on
// restart.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	records map[string]*record
	now     func() time.Time
}

func NewMemoryLimiter(limit int) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Allow increments the key's window counter and reports whether the request
// is within the limit. Denied requests still consume the window, matching
// the Redis variant's INCR semantics.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[key]
	if !ok || now.Sub(rec.windowStart) >= Window {
		rec = &record{windowStart: now}
		l.records[key] = rec
	}
	rec.count++

	resetAt := rec.windowStart.Add(Window)
	info := Info{Limit: l.limit, ResetAt: resetAt}
	if rec.count <= l.limit {
		info.Remaining = l.limit - rec.count
		return true, info, nil
	}
	info.RetryAfter = resetAt.Sub(now)
	return false, info, nil
}
