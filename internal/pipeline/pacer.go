package pipeline

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces remote calls out proactively, independent of the reactive
// rate-limit backoff. It is a token bucket of size one plus bounded random
// jitter, shared by all workers so concurrent callers cannot independently
// exhaust the remote quota.
type Pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
	started atomic.Bool
}

// NewPacer builds a pacer that spaces consecutive calls by a randomized
// delay in [min, max]. A non-positive min disables pacing.
func NewPacer(min, max time.Duration) *Pacer {
	if min <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	if max < min {
		max = min
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(min), 1),
		jitter:  max - min,
	}
}

// Wait blocks until the next call may proceed. The first acquisition is
// immediate so pacing applies between calls, never before the first one.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if p.started.CompareAndSwap(false, true) {
		return nil
	}
	if p.jitter <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(rand.Int64N(int64(p.jitter))))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
