package importer

import (
	"context"
	"sync"
	"time"
)

// RateLimit caps one provider's fetch rate. RPM is requests per minute;
// Burst is the bucket capacity.
type RateLimit struct {
	RPM   int
	Burst int
}

// tokenBucket gates provider fetches. Rate-limit backoff is simply
// waiting for the next token.
type tokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

func newTokenBucket(limit RateLimit) *tokenBucket {
	rate := float64(limit.RPM) / 60
	if rate <= 0 {
		rate = 1
	}
	burst := limit.Burst
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{
		rate:     rate,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// wait blocks until one token is available or the context is done.
func (tb *tokenBucket) wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
			tb.tokens += elapsed * tb.rate
			if tb.tokens > tb.capacity {
				tb.tokens = tb.capacity
			}
			tb.last = now
		}
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		deficit := 1 - tb.tokens
		tb.mu.Unlock()

		wait := time.Duration(deficit / tb.rate * float64(time.Second))
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
