package ai

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig is exponential backoff with jitter for the chapter/conclusion
// phases' transient LM error recovery.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// ShouldRetry decides whether err warrants another attempt. A nil func
	// retries every error.
	ShouldRetry func(err error) bool
}

// DefaultRetryConfig matches the documented CHAPTER_RETRY_MAX/BACKOFF
// defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
	}
}

// RetryFunc is a unit of work that may be retried. attempt is 1-indexed.
type RetryFunc func(ctx context.Context, attempt int) error

// Do runs fn, retrying on failure per cfg until MaxRetries is exhausted, the
// context is cancelled, or ShouldRetry rejects the error outright.
func Do(ctx context.Context, cfg RetryConfig, fn RetryFunc) error {
	if cfg.MaxRetries <= 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return err
		}
		if attempt >= cfg.MaxRetries+1 {
			return lastErr
		}

		delay := backoffDelay(attempt, cfg)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	jitter := delay * 0.25 * rand.Float64()
	return time.Duration(delay + jitter)
}
