package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient failures with capped exponential backoff
// and ±20% jitter. Malformed structured output is asked for once more;
// rejected and truncated requests are returned at once.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig
	sleep func(context.Context, time.Duration) error
}

// WithRetry wraps p. MaxAttempts below one still makes one call.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, cfg: cfg, sleep: sleepCtx}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	reasked := false

	var err error
	for n := range attempts {
		if n > 0 {
			if serr := r.sleep(ctx, r.wait(n-1, err)); serr != nil {
				return nil, interrupted(serr, err)
			}
		}

		var resp *Response
		if resp, err = r.inner.Generate(ctx, req); err == nil {
			return resp, nil
		}

		switch retryPolicyFor(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if reasked {
				return nil, err
			}
			reasked = true
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// wait is the pause before retry n+1. A rate-limit hint wins over the
// schedule but never exceeds MaxWait.
func (r *RetryProvider) wait(n int, err error) time.Duration {
	limit := r.cfg.MaxWait
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		if limit > 0 {
			return min(rl.RetryAfter, limit)
		}
		return rl.RetryAfter
	}

	mult := r.cfg.Multiplier
	if mult < 1 {
		mult = 2
	}
	d := float64(r.cfg.InitialWait)
	for range n {
		d *= mult
		if limit > 0 && d >= float64(limit) {
			break
		}
	}
	if limit > 0 {
		d = min(d, float64(limit))
	}
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

// interrupted reports a wait cut short by ctx, keeping the last provider
// failure visible.
func interrupted(ctxErr, last error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return &ErrTimeout{Err: errors.Join(ctxErr, last)}
	}
	return ctxErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
