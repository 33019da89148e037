package llm

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy declares how generation failures are retried: how many
// total attempts are made and the linear backoff step between them
// (attempt n waits n × Delay). Classification of retryable errors lives
// in Retryable, not in caller control flow.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy makes 3 total attempts with a 500ms backoff step.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond}
}

// Retryable reports whether another attempt could succeed. Quota and
// unknown-model failures are permanent; so are context errors.
func (p RetryPolicy) Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var quota *ErrQuotaExceeded
	if errors.As(err, &quota) {
		return false
	}
	var notFound *ErrModelNotFound
	if errors.As(err, &notFound) {
		return false
	}
	return true
}

// Backoff returns the wait before the next attempt (attempt is zero-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * p.Delay
}

// RetryProvider is a decorator that re-invokes the inner provider per
// the policy.
type RetryProvider struct {
	inner  Provider
	policy RetryPolicy
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	return &RetryProvider{inner: p, policy: policy}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := range r.policy.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.policy.Retryable(err) {
			return nil, err
		}
		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.policy.Backoff(attempt)):
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}
