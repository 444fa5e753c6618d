package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullpen-rag/internal/infra/retry"
)

func TestPolicy_SucceedsFirstAttempt(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_RetriesUntilSuccess(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_ReturnsLastErrorWhenExhausted(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("permanent")
	})

	require.Error(t, err)
	assert.EqualError(t, err, "permanent")
	assert.Equal(t, 3, calls)
}

func TestPolicy_ZeroValueRunsOnce(t *testing.T) {
	var policy retry.Policy

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("failed")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_CanceledContextStopsRetrying(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 5, BaseDelay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func() error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry loop did not stop after cancellation")
	}
}
