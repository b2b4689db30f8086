// Package ratelimit throttles outgoing requests to the search server.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces requests to a configured number per second.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter. Zero or negative means no limiting.
func New(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	// Burst of 1: the first request goes out immediately, later ones
	// wait their turn.
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

// Wait blocks until the next request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Limit reports the configured requests per second, 0 for unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}
