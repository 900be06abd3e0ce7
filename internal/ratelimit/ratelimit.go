// Package ratelimit throttles repeated actions per key using token buckets.
// The shell uses it to slow down password guessing against one username.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter gives each key its own token bucket. Buckets idle for
// longer than the refill window are evicted by a background sweeper.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New allows burst events per key, refilled evenly over window.
// For example New(5, time.Minute) permits five attempts at once and then
// one more every twelve seconds.
func New(burst int, window time.Duration) *KeyedRateLimiter {
	if burst < 1 {
		burst = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Every(window / time.Duration(burst)),
		burst:   burst,
		idle:    window,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go krl.cleanup(window)

	return krl
}

// Allow reports whether an event for key may happen now and consumes a token if so.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	now := krl.now()
	e, ok := krl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Reset forgets key, restoring its full burst. Call after a successful login.
func (krl *KeyedRateLimiter) Reset(key string) {
	krl.mu.Lock()
	delete(krl.entries, key)
	krl.mu.Unlock()
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.entries)
}

// Stop shuts down the sweeper. Safe to call more than once.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.sweep()
		}
	}
}

// sweep drops keys not seen within the idle window; their buckets are full again by then.
func (krl *KeyedRateLimiter) sweep() {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	cutoff := krl.now().Add(-krl.idle)
	for k, e := range krl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(krl.entries, k)
		}
	}
}
