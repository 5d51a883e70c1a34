package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy describes an exponential backoff: after a failed attempt wait
// Delay, then multiply Delay by Multiplier, until Retries extra attempts are
// spent.
type RetryPolicy struct {
	Retries    int
	Delay      time.Duration
	Multiplier float64
}

// DefaultRetryPolicy waits at most 0.5+1+2+4+8 = 15.5s before giving up.
var DefaultRetryPolicy = RetryPolicy{
	Retries:    5,
	Delay:      500 * time.Millisecond,
	Multiplier: 2,
}

// MaxWait returns the sum of every backoff delay the policy may sleep.
func (p RetryPolicy) MaxWait() time.Duration {
	var total time.Duration
	delay := p.Delay
	for i := 0; i < p.Retries; i++ {
		total += delay
		delay = p.next(delay)
	}
	return total
}

func (p RetryPolicy) next(delay time.Duration) time.Duration {
	if p.Multiplier <= 0 {
		return delay
	}
	return time.Duration(float64(delay) * p.Multiplier)
}

// sleep is swapped in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn until it succeeds or the policy is exhausted, in which case
// the last error is returned. A cancelled ctx stops the backoff early.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		res   T
		err   error
		delay = policy.Delay
	)
	for retries := policy.Retries; ; retries-- {
		res, err = fn(ctx)
		if err == nil {
			return res, nil
		}
		if retries <= 0 {
			return res, err
		}
		if serr := sleep(ctx, delay); serr != nil {
			return res, fmt.Errorf("%w: %w", err, serr)
		}
		delay = policy.next(delay)
	}
}

// Describe is logged when a long running command starts.
func (p RetryPolicy) Describe() string {
	return fmt.Sprintf("retries=%d delay=%s multiplier=%.2f", p.Retries, p.Delay, p.Multiplier)
}
