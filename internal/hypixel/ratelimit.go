package hypixel

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window limiter: at most maxRequests calls
// inside any window-sized interval. Hypixel allows 300 requests per 5
// minutes per key; Mojang allows 600 per 10 minutes.
//
// The lock is held only to inspect and update the timestamp queue;
// waiting happens outside the lock so one blocked caller does not
// stall the others.
type RateLimiter struct {
	maxRequests int
	window      time.Duration

	mu         sync.Mutex
	timestamps []time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests per window.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
	}
}

// Wait blocks until a request may be made without exceeding the limit,
// then records the request.
func (r *RateLimiter) Wait() {
	if wait := r.reserve(); wait > 0 {
		time.Sleep(wait)
	}

	r.mu.Lock()
	r.timestamps = append(r.timestamps, time.Now())
	r.mu.Unlock()
}

// reserve prunes expired timestamps and returns how long the caller
// must wait for the oldest in-window request to expire, if the window
// is full.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	keep := 0
	for ; keep < len(r.timestamps); keep++ {
		if r.timestamps[keep].After(cutoff) {
			break
		}
	}
	r.timestamps = r.timestamps[keep:]

	if len(r.timestamps) < r.maxRequests {
		return 0
	}
	return r.timestamps[0].Add(r.window).Sub(now)
}

// Pending returns how many requests are currently inside the window.
func (r *RateLimiter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.window)
	n := 0
	for _, ts := range r.timestamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}
