package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound LLM calls. All three validation prompts for a
// claim go through the same limiter, so batch runs cannot stampede a
// provider's rate limits.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond with the given
// burst. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a call is allowed or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a call is allowed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
