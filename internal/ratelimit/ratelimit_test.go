package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter() (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	return newMemoryLimiter(clock.now), clock
}

func TestMemoryLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter()
	rule := Rule{Limit: 3, Window: time.Hour}

	for i := 0; i < 3; i++ {
		ok, _ := limiter.Allow("test-key", rule)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, retryAfter := limiter.Allow("test-key", rule)
	assert.False(t, ok, "fourth request should be denied")
	assert.Equal(t, time.Hour, retryAfter)

	ok, _ = limiter.Allow("other-key", rule)
	assert.True(t, ok, "different key should be allowed")
}

func TestMemoryLimiter_RetryAfterShrinks(t *testing.T) {
	limiter, clock := newTestLimiter()
	rule := Rule{Limit: 1, Window: time.Minute}

	limiter.Allow("k", rule)
	clock.advance(20 * time.Second)

	ok, retryAfter := limiter.Allow("k", rule)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retryAfter)
}

func TestMemoryLimiter_Remaining(t *testing.T) {
	limiter, _ := newTestLimiter()
	rule := Rule{Limit: 5, Window: time.Hour}

	assert.Equal(t, 5, limiter.Remaining("test-key", rule))

	limiter.Allow("test-key", rule)
	assert.Equal(t, 4, limiter.Remaining("test-key", rule))

	for i := 0; i < 6; i++ {
		limiter.Allow("test-key", rule)
	}
	assert.Equal(t, 0, limiter.Remaining("test-key", rule))
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	limiter, clock := newTestLimiter()
	rule := Rule{Limit: 1, Window: 50 * time.Millisecond}

	limiter.Allow("test-key", rule)
	ok, _ := limiter.Allow("test-key", rule)
	assert.False(t, ok, "should be rate limited")

	clock.advance(50 * time.Millisecond)

	ok, _ = limiter.Allow("test-key", rule)
	assert.True(t, ok, "should be allowed after window reset")
}

func TestMemoryLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter()

	for i := 0; i < 100; i++ {
		ok, _ := limiter.Allow("k", Rule{Limit: 0, Window: time.Hour})
		assert.True(t, ok)
	}
	assert.Equal(t, 0, limiter.size())
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	limiter, clock := newTestLimiter()

	limiter.Allow("key1", Rule{Limit: 1, Window: 10 * time.Millisecond})
	limiter.Allow("key2", Rule{Limit: 1, Window: time.Hour})

	clock.advance(20 * time.Millisecond)
	limiter.Cleanup()

	assert.Equal(t, 1, limiter.size())
	assert.Equal(t, 1, limiter.Remaining("key1", Rule{Limit: 1, Window: time.Hour}))
	assert.Equal(t, 0, limiter.Remaining("key2", Rule{Limit: 1, Window: time.Hour}))
}

func TestMemoryLimiter_StartCleanupStopsWithContext(t *testing.T) {
	limiter, clock := newTestLimiter()
	limiter.Allow("key", Rule{Limit: 1, Window: time.Millisecond})
	clock.advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter.StartCleanup(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return limiter.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	limiter := NewMemoryLimiter()
	rule := Rule{Limit: 100, Window: time.Hour}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < rule.Limit*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("concurrent-key", rule); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, rule.Limit, allowed)
	assert.Equal(t, 0, limiter.Remaining("concurrent-key", rule))
}
