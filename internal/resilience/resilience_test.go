package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute})
	cb.now = func() time.Time { return now }

	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Failures())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 2})
	cb.now = func() time.Time { return now }

	_ = cb.Call(func() error { return errBoom })
	now = now.Add(time.Second)

	_ = cb.Call(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())

	cb.Reset()
	assert.Equal(t, "closed", cb.Stats()["state"])
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 2}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, func(attempt int) error {
			calls++
			if attempt < 3 {
				return errBoom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, func(int) error { calls++; return errBoom })
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable", func(t *testing.T) {
		c := cfg
		c.Retryable = func(error) bool { return false }
		calls := 0
		err := Retry(context.Background(), c, func(int) error { calls++; return errBoom })
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Retry(ctx, cfg, func(int) error { return errBoom })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCalculateDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffFactor: 2}
	assert.Equal(t, 100*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(cfg, 1))
	assert.Equal(t, 300*time.Millisecond, calculateDelay(cfg, 5))

	cfg.JitterEnabled = true
	d := calculateDelay(cfg, 0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.Less(t, d, 110*time.Millisecond)
}

func TestHealthRegistry(t *testing.T) {
	h := NewHealthRegistry(time.Second)
	h.Register("database", true, func(context.Context) error { return nil })
	h.Register("redis", false, func(context.Context) error { return errBoom })

	status, results := h.Check(context.Background())
	assert.Equal(t, StatusDegraded, status)
	require.Len(t, results, 2)
	assert.Equal(t, "database", results[0].ServiceName)
	assert.True(t, results[0].Healthy)
	assert.Equal(t, "boom", results[1].Message)

	h.Register("database", true, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	h.timeout = 10 * time.Millisecond
	status, _ = h.Check(context.Background())
	assert.Equal(t, StatusDown, status)

	empty := NewHealthRegistry(0)
	status, results = empty.Check(context.Background())
	assert.Equal(t, StatusOK, status)
	assert.Empty(t, results)
}
