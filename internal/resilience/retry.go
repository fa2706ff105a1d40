package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled"`
	// Retryable decides whether err is worth another attempt; nil retries everything
	Retryable func(error) bool `json:"-"`
}

// DefaultRetryConfig is tuned for startup connections to postgres and redis
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned.
func Retry(ctx context.Context, config RetryConfig, fn func(attempt int) error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt + 1)
		if lastErr == nil {
			return nil
		}
		if config.Retryable != nil && !config.Retryable(lastErr) {
			return lastErr
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(calculateDelay(config, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// calculateDelay is initial_delay * backoff_factor^attempt, capped, plus up to 10% jitter
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	factor := config.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(factor, float64(attempt)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.JitterEnabled && delay >= 10 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}
	return delay
}
