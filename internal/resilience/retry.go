// Package resilience implements the retry discipline for remote model
// calls. Only rate-limit rejections are retried; every other failure
// surfaces immediately with its original status and detail, leaving the
// abort decision to the caller.
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls rate-limit retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of rate-limited attempts retried before
	// giving up, so MaxRetries+1 attempts are issued in total. Default: 5.
	MaxRetries int

	// DefaultWait applies when the server supplied no wait hint. Default: 30s.
	DefaultWait time.Duration

	// Buffer is a fixed safety margin added on top of the hinted or default
	// wait. Default: 1s.
	Buffer time.Duration

	// Backoff is the linear per-retry increment (retries * Backoff).
	// Default: 5s.
	Backoff time.Duration

	// JitterMax bounds the random jitter added to each wait so concurrent
	// callers do not retry in lockstep. Default: 1s.
	JitterMax time.Duration

	// OnRetry is called before each retry sleep with the upcoming attempt
	// number and the rate-limit error.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultRetryConfig returns the standard rate-limit retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  5,
		DefaultWait: 30 * time.Second,
		Buffer:      time.Second,
		Backoff:     5 * time.Second,
		JitterMax:   time.Second,
	}
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.DefaultWait <= 0 {
		cfg.DefaultWait = 30 * time.Second
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Second
	}
	if cfg.JitterMax < 0 {
		cfg.JitterMax = 0
	}
	return cfg
}

// DoVal executes fn, retrying only rate-limit rejections. The wait before
// each retry is the server hint (or DefaultWait) plus Buffer, plus a linear
// backoff term proportional to the retry count, plus bounded random jitter.
// After MaxRetries rate-limited retries it returns *ExhaustedRetriesError;
// any non-rate-limit error returns immediately. Context cancellation stops
// the wait and surfaces ctx.Err().
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	for retries := 0; ; retries++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}

		if ctx.Err() != nil {
			return zero, err
		}

		var rle *RateLimitError
		if !errors.As(err, &rle) {
			return zero, err
		}

		if retries >= cfg.MaxRetries {
			return zero, &ExhaustedRetriesError{Attempts: retries + 1, Last: err}
		}

		wait := cfg.DefaultWait
		if rle.RetryAfter > 0 {
			wait = rle.RetryAfter
		}
		wait += cfg.Buffer
		wait += time.Duration(retries) * cfg.Backoff
		if cfg.JitterMax > 0 {
			wait += time.Duration(rand.Int64N(int64(cfg.JitterMax)))
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(retries+1, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryLogger returns an OnRetry callback that logs each rate-limit wait.
func RetryLogger(operation string) func(int, time.Duration, error) {
	return func(attempt int, wait time.Duration, err error) {
		zap.L().Warn("rate limited, backing off",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
}
