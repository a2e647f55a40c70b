package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategy_SucceedsAfterFailures(t *testing.T) {
	strategy := Strategy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := strategy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestStrategy_ExhaustsAttempts(t *testing.T) {
	strategy := Strategy{Attempts: 3, Delay: time.Millisecond, Backoff: 2}

	calls := 0
	permanent := errors.New("permanent")
	err := strategy.Do(context.Background(), func() error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 3, calls)
}

func TestStrategy_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Strategy{}.Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestStrategy_ContextCancelStopsRetries(t *testing.T) {
	strategy := Strategy{Attempts: 10, Delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- strategy.Do(ctx, func() error {
			calls++
			return errors.New("failing")
		})
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
	assert.LessOrEqual(t, calls, 1)
}
