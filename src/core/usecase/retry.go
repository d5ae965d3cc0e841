package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"pulljoker/src/core/domain"
)

// RetryPolicy bounds how often a command is re-run after losing an append race.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy allows three attempts with a short jittered backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 20 * time.Millisecond,
		MaxBackoff:     250 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		b.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		b.MaxInterval = p.MaxBackoff
	}
	return b
}

// retryOnConflict re-runs op while it fails with a concurrency conflict.
// Every other error ends the loop at once. A conflict on the last attempt is
// reported as ErrRetryExhausted, still wrapping the conflict.
func retryOnConflict[T any](ctx context.Context, p RetryPolicy, op func(attempt int) (T, error), notify func(error, time.Duration)) (T, error) {
	attempts := max(p.MaxAttempts, 1)
	attempt := 0

	res, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := op(attempt)
		if err != nil && !errors.Is(err, domain.ErrConcurrencyConflict) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return res, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		return res, fmt.Errorf("%w: %w", domain.NewError(domain.ErrRetryExhausted, "gave up after %d attempts", attempt), err)
	}
	return res, err
}
