package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	boom := errors.New("bad request")
	calls := 0
	err := Retry(context.Background(), "op", fastRetry(5), func(context.Context) error {
		calls++
		return Permanent(boom)
	})
	require.Equal(t, 1, calls)
	require.Equal(t, boom, err, "permanent errors come back unwrapped")
}

func TestRetryExhaustsAttempts(t *testing.T) {
	boom := errors.New("transient")
	calls := 0
	err := Retry(context.Background(), "op", fastRetry(3), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
	require.Contains(t, err.Error(), "all 3 attempts failed")
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	err := Retry(ctx, "op", RetryConfig{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls, "cancellation ends the backoff wait")
}

func TestPermanentNil(t *testing.T) {
	require.NoError(t, Permanent(nil))
}

func TestComputeDelayCapped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 10, JitterFraction: 0.1}
	for attempt := 1; attempt <= 5; attempt++ {
		require.LessOrEqual(t, computeDelay(attempt, cfg), 3*time.Second)
	}
}
