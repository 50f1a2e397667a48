package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider bounds every Generate call, retries included.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call gets at most d. A non-positive d
// returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

// Generate reports its own budget running out as *ErrTimeout with After
// set. A caller's earlier deadline is passed through as is.
func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	bounded, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(bounded, req)
	if err == nil || ctx.Err() != nil || !errors.Is(bounded.Err(), context.DeadlineExceeded) {
		return resp, err
	}
	var te *ErrTimeout
	if errors.As(err, &te) {
		te.After = t.timeout
		return nil, te
	}
	return nil, &ErrTimeout{After: t.timeout, Err: err}
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
