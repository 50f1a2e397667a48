package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Every provider maps its SDK's failures onto the types below, so the retry
// decorator and the tutoring code never branch on a backend.

// ErrRateLimit is a 429 from the provider.
type ErrRateLimit struct {
	RetryAfter time.Duration // zero when the provider sent no hint
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable is a 5xx, an overloaded endpoint or a transport
// failure. It is worth retrying.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "text generation unavailable"
	}
	return fmt.Sprintf("text generation unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrRejected means the provider refused the request itself: a bad key, an
// unknown model or a malformed body. Retrying cannot help.
type ErrRejected struct {
	Status int
	Err    error
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("request rejected (%d): %v", e.Status, e.Err)
}

func (e *ErrRejected) Unwrap() error { return e.Err }

// ErrTimeout means the call ran out of time. It matches
// context.DeadlineExceeded under errors.Is whatever the SDK returned.
type ErrTimeout struct {
	After time.Duration // the budget that expired, zero if the caller's
	Err   error
}

func (e *ErrTimeout) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("text generation timed out after %s: %v", e.After, e.Err)
	}
	return fmt.Sprintf("text generation timed out: %v", e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

func (e *ErrTimeout) Is(target error) bool { return target == context.DeadlineExceeded }

// ErrInvalidResponse means the output was not the JSON object the schema
// asked for.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("malformed structured output: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means a structured answer was cut off at MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "structured output truncated at max tokens"
}

// providerError maps an SDK failure with its HTTP status onto the error
// types above. A zero status is a transport failure. header may be nil.
func providerError(ctx context.Context, status int, header http.Header, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &ErrTimeout{Err: err}
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter(header, time.Now()), Err: err}
	case status == http.StatusRequestTimeout, status >= 500, status == 0:
		return &ErrProviderUnavailable{Err: err}
	case status >= 400:
		return &ErrRejected{Status: status, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP date.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

type retryPolicy int

const (
	retryNever retryPolicy = iota
	// A second sample may well parse.
	retryOnce
	retryBackoff
)

func retryPolicyFor(err error) retryPolicy {
	var (
		rejected  *ErrRejected
		truncated *ErrMaxTokensExceeded
		invalid   *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retryNever
	case errors.As(err, &rejected), errors.As(err, &truncated):
		return retryNever
	case errors.As(err, &invalid):
		return retryOnce
	}
	return retryBackoff
}
