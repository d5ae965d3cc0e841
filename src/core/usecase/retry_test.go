package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulljoker/src/core/domain"
)

func TestRetryOnConflict(t *testing.T) {
	conflict := domain.NewError(domain.ErrConcurrencyConflict, "raced")
	policy := RetryPolicy{MaxAttempts: 4, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	tests := []struct {
		name     string
		failures []error
		want     error
		attempts int
	}{
		{"first try", nil, nil, 1},
		{"conflicts then success", []error{conflict, conflict}, nil, 3},
		{"rule violation is final", []error{domain.NewError(domain.ErrNotYourTurn, "B")}, domain.ErrNotYourTurn, 1},
		{"plain error is final", []error{conflict, errors.New("boom")}, nil, 2},
		{"exhausted", []error{conflict, conflict, conflict, conflict}, domain.ErrRetryExhausted, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notified int
			got, err := retryOnConflict(context.Background(), policy, func(attempt int) (int, error) {
				if attempt <= len(tt.failures) {
					return 0, tt.failures[attempt-1]
				}
				return attempt, nil
			}, func(error, time.Duration) { notified++ })

			switch {
			case tt.want != nil:
				require.ErrorIs(t, err, tt.want)
			case tt.name == "plain error is final":
				require.EqualError(t, err, "boom")
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.attempts, got)
			}
			assert.Equal(t, tt.attempts-1, notified, "one notification per retry")
		})
	}
}

func TestRetryOnConflictStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := retryOnConflict(ctx, RetryPolicy{MaxAttempts: 10, InitialBackoff: time.Hour, MaxBackoff: time.Hour},
		func(int) (struct{}, error) {
			calls++
			cancel()
			return struct{}{}, domain.NewError(domain.ErrConcurrencyConflict, "raced")
		}, func(error, time.Duration) {})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
