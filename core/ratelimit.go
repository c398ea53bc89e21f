package core

import (
	"errors"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit exceeded")

//	RateLimiter vetoes methods once its token bucket is empty.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *RateLimiter) Authorize(m *Method) error {
	if !l.limiter.Allow() {
		return ErrRateLimited
	}
	return nil
}
