package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound model calls with a shared token bucket. All
// classifications across a scan draw from the same bucket so provider
// rate limits hold regardless of concurrency.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond with the given
// burst. A non-positive rate disables pacing.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{bucket: rate.NewLimiter(rate.Inf, 1)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}

// Allow reports whether a call may proceed without waiting.
func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}
