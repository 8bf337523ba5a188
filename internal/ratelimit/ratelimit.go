// Package ratelimit throttles write endpoints per client key using fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Rule is a request budget per window. A non-positive Limit disables limiting.
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) Disabled() bool {
	return r.Limit <= 0 || r.Window <= 0
}

// Limiter defines the rate limiting interface
type Limiter interface {
	// Allow consumes one request for key. When the budget is spent it returns
	// false and the time until the window resets.
	Allow(key string, rule Rule) (bool, time.Duration)

	// Remaining returns the number of requests left in the current window
	Remaining(key string, rule Rule) int
}

// MemoryLimiter keeps one bucket per key in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	count     int
	resetTime time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return newMemoryLimiter(time.Now)
}

func newMemoryLimiter(now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     now,
	}
}

func (l *MemoryLimiter) Allow(key string, rule Rule) (bool, time.Duration) {
	if rule.Disabled() {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]

	if !ok || !now.Before(b.resetTime) {
		l.buckets[key] = &bucket{
			count:     1,
			resetTime: now.Add(rule.Window),
		}
		return true, 0
	}

	if b.count >= rule.Limit {
		return false, b.resetTime.Sub(now)
	}

	b.count++
	return true, 0
}

func (l *MemoryLimiter) Remaining(key string, rule Rule) int {
	if rule.Disabled() {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !l.now().Before(b.resetTime) {
		return rule.Limit
	}

	return max(rule.Limit-b.count, 0)
}

// Cleanup removes expired buckets
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if !now.Before(b.resetTime) {
			delete(l.buckets, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is cancelled.
func (l *MemoryLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Ensure MemoryLimiter implements Limiter
var _ Limiter = (*MemoryLimiter)(nil)
