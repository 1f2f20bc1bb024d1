package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Throttle is a process-wide outgoing request throttle with a shared retry
// budget. Construct one per upstream service and hand the same *Throttle to
// every caller: all calls through it, retries included, are spaced at least
// MinDelay apart.
type Throttle struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	retry    RetryConfig
}

// ThrottleConfig configures a Throttle.
type ThrottleConfig struct {
	MinDelay   time.Duration
	MaxRetries int
	ErrorWait  time.Duration
	// OnRetry is forwarded to the retry loop.
	OnRetry func(attempt int, err error)
}

// NewThrottle creates a Throttle. A zero MinDelay disables spacing.
func NewThrottle(cfg ThrottleConfig) *Throttle {
	limit := rate.Inf
	if cfg.MinDelay > 0 {
		limit = rate.Every(cfg.MinDelay)
	}
	retry := FixedRetryConfig(cfg.MaxRetries, cfg.ErrorWait)
	retry.OnRetry = cfg.OnRetry
	return &Throttle{
		limiter:  rate.NewLimiter(limit, 1),
		minDelay: cfg.MinDelay,
		retry:    retry,
	}
}

// MinDelay returns the configured spacing between calls.
func (t *Throttle) MinDelay() time.Duration { return t.minDelay }

// MaxAttempts returns the attempt budget per call (first try plus retries).
func (t *Throttle) MaxAttempts() int { return t.retry.MaxAttempts }

// Wait blocks until the next call is allowed.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "throttle: wait")
	}
	return nil
}

// Call runs fn under t: each attempt first waits for the throttle, and
// transient failures are retried within t's budget. It returns the value,
// the number of attempts made, and the last error.
func Call[T any](ctx context.Context, t *Throttle, fn func(ctx context.Context) (T, error)) (T, int, error) {
	return DoVal(ctx, t.retry, func(ctx context.Context) (T, error) {
		if err := t.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx)
	})
}
