package ai

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/autofixops/fixops-go/internal/domain"
)

// RetryPolicy bounds the retry loop for one inference call.
type RetryPolicy struct {
	// MaxAttempts caps total API calls; attempts are numbered 0..MaxAttempts-1.
	MaxAttempts int
	// BaseSeconds is the exponential base: a 5xx on attempt n waits
	// baseSeconds^n before the next attempt. It is also the floor wait for a
	// 429 without a usable Retry-After header.
	BaseSeconds float64
	// MaxJitter bounds the random addition to every computed wait.
	MaxJitter time.Duration
}

// DefaultRetryPolicy mirrors the documented cost-control constants.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: domain.DefaultMaxRetries,
		BaseSeconds: domain.DefaultBaseBackoffSeconds,
		MaxJitter:   domain.DefaultMaxJitter,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = domain.DefaultMaxRetries
	}
	if p.BaseSeconds <= 0 {
		p.BaseSeconds = domain.DefaultBaseBackoffSeconds
	}
	if p.MaxJitter < 0 {
		p.MaxJitter = 0
	}
	return p
}

// ServerErrorWait returns the jittered exponential wait after a 5xx or
// transport failure on the given 0-based attempt.
func (p RetryPolicy) ServerErrorWait(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := time.Duration(math.Pow(p.BaseSeconds, float64(attempt)) * float64(time.Second))
	return base + p.jitter()
}

// RateLimitWait returns the wait after a 429. A parseable Retry-After value
// (delta seconds) takes precedence over the default floor; either way a
// bounded jitter is added to avoid synchronized retry storms.
func (p RetryPolicy) RateLimitWait(retryAfter string) time.Duration {
	floor := time.Duration(p.BaseSeconds * float64(time.Second))
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs >= 0 {
			floor = time.Duration(secs * float64(time.Second))
		}
	}
	return floor + p.jitter()
}

func (p RetryPolicy) jitter() time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(p.MaxJitter) + 1))
}
