package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// InvalidateCampaign resets a campaign's analytics budget, for example after
// a bulk import that legitimately needs many report refreshes.
func (rl *RateLimiter) InvalidateCampaign(ctx context.Context, campaignID string) error {
	return rl.invalidate(ctx, campaignKey(campaignID))
}

// InvalidateIP resets a client address's budget
func (rl *RateLimiter) InvalidateIP(ctx context.Context, ip string) error {
	return rl.invalidate(ctx, ipKey(ip))
}

// InvalidateAll removes every rate limit key
func (rl *RateLimiter) InvalidateAll(ctx context.Context) error {
	slog.Warn("Invalidating all rate limits")
	return rl.invalidate(ctx, "ratelimit:")
}

// invalidate drops local buckets whose key starts with prefix and the
// matching Redis keys when Redis is enabled.
func (rl *RateLimiter) invalidate(ctx context.Context, prefix string) error {
	rl.fallbackMutex.Lock()
	removed := 0
	for key := range rl.fallbackLimiters {
		if strings.HasPrefix(key, prefix) {
			delete(rl.fallbackLimiters, key)
			removed++
		}
	}
	rl.fallbackMutex.Unlock()
	slog.Info("Invalidated in-memory rate limits", "prefix", prefix, "count", removed)

	if !rl.redisClient.IsEnabled() {
		return nil
	}
	// redis_rate stores its state under "rate:" + key
	return rl.deleteByPattern(ctx, "rate:"+prefix+"*")
}

// deleteByPattern deletes all Redis keys matching a pattern using SCAN
func (rl *RateLimiter) deleteByPattern(ctx context.Context, pattern string) error {
	client := rl.redisClient.GetClient()

	var (
		cursor       uint64
		deletedCount int64
	)
	for {
		keys, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			deletedCount += deleted
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	slog.Info("Deleted rate limit keys by pattern", "pattern", pattern, "count", deletedCount)
	return nil
}

// KeyCount returns the number of live in-memory buckets
func (rl *RateLimiter) KeyCount() int {
	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()
	return len(rl.fallbackLimiters)
}
