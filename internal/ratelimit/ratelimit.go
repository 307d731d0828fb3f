// Package ratelimit provides keyed rate limiters.
// The token bucket limiter supports non-blocking (Allow, CheckAndConsume) and
// blocking (Wait) operations; the Badger limiter enforces a fixed window in a
// store that outlives the process.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a key's limiter is kept after its last use.
const DefaultIdleTTL = 10 * time.Minute

// Decision is the outcome of a CheckAndConsume call.
type Decision struct {
	Allowed bool
	// RetryAfter is how long the caller should wait before trying again.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter atomically checks a key's budget and consumes one unit of it.
// A denied call consumes nothing.
type Limiter interface {
	CheckAndConsume(ctx context.Context, key string) (Decision, error)
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent rate limiter.
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*keyedEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration

	// Cleanup
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new keyed rate limiter.
// rps: requests per second allowed.
// burst: maximum burst size (tokens available immediately).
func New(rps float64, burst int) *KeyedRateLimiter {
	return newKeyed(rate.Limit(rps), burst, DefaultIdleTTL)
}

// NewWindow creates a keyed limiter that allows limit calls per window,
// refilling continuously at limit/window.
func NewWindow(limit int, window time.Duration) *KeyedRateLimiter {
	return newKeyed(rate.Every(window/time.Duration(limit)), limit, max(DefaultIdleTTL, window))
}

func newKeyed(limit rate.Limit, burst int, idleTTL time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		limiters: make(map[string]*keyedEntry),
		limit:    limit,
		burst:    burst,
		idleTTL:  idleTTL,
		done:     make(chan struct{}),
	}

	go krl.cleanup()

	return krl
}

// Allow checks if a request for the given key should be allowed.
// Returns immediately without blocking. Use for inbound request protection.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// Wait blocks until a request for the given key is allowed or context is canceled.
// Use for outbound requests where you want to respect rate limits.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.getLimiter(key).Wait(ctx)
}

// CheckAndConsume takes one token for key if one is available now.
// When none is, nothing is consumed and RetryAfter reports when one will be.
func (krl *KeyedRateLimiter) CheckAndConsume(_ context.Context, key string) (Decision, error) {
	now := time.Now()
	r := krl.getLimiter(key).ReserveN(now, 1)
	if !r.OK() {
		return Decision{Allowed: false}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

// Len returns the number of keys currently tracked.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.limiters)
}

// getLimiter returns the limiter for a key, creating one if needed.
func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now().UnixNano()

	// Fast path: read lock
	krl.mu.RLock()
	entry, exists := krl.limiters[key]
	krl.mu.RUnlock()

	if exists {
		entry.lastSeen.Store(now)
		return entry.limiter
	}

	// Slow path: write lock to create
	krl.mu.Lock()
	defer krl.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists = krl.limiters[key]; exists {
		entry.lastSeen.Store(now)
		return entry.limiter
	}

	entry = &keyedEntry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
	entry.lastSeen.Store(now)
	krl.limiters[key] = entry
	return entry.limiter
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

// cleanup evicts limiters idle for longer than idleTTL until Stop is called.
func (krl *KeyedRateLimiter) cleanup() {
	ticker := time.NewTicker(krl.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case now := <-ticker.C:
			krl.evictIdle(now)
		}
	}
}

// evictIdle drops limiters not used since now-idleTTL. An evicted key starts
// over with a full bucket, which is what an idle key would have anyway.
func (krl *KeyedRateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-krl.idleTTL).UnixNano()

	krl.mu.Lock()
	defer krl.mu.Unlock()

	for key, entry := range krl.limiters {
		if entry.lastSeen.Load() < cutoff {
			delete(krl.limiters, key)
		}
	}
}
