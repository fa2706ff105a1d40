package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimitPerMin       int // all routes, per client IP
	CampaignLimitPerMin int // analytics routes, per campaign
	BurstMultiplier     int // fallback burst = limit * multiplier
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:       120,
		CampaignLimitPerMin: 30,
		BurstMultiplier:     1,
	}
}

// Rate is a request budget over a period
type Rate struct {
	Limit  int
	Period time.Duration
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides distributed rate limiting with Redis and in-memory fallback
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      *monitoring.Metrics

	fallbackLimiters map[string]*fallbackEntry
	fallbackMutex    sync.Mutex

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter creates a new rate limiter with Redis and in-memory fallback.
// Close stops the fallback janitor.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if redisClient == nil {
		redisClient = &RedisClient{}
	}
	if config.BurstMultiplier < 1 {
		config.BurstMultiplier = 1
	}
	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*fallbackEntry),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	go rl.cleanupFallbackLimiters(10 * time.Minute)

	return rl
}

func ipKey(ip string) string {
	return fmt.Sprintf("ratelimit:ip:%s", ip)
}

func campaignKey(campaignID string) string {
	return fmt.Sprintf("ratelimit:campaign:%s", campaignID)
}

// AllowIP checks the per-minute budget of a client address
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, ipKey(ip), Rate{Limit: rl.config.IPLimitPerMin, Period: time.Minute})
}

// AllowCampaign checks the per-minute analytics budget of a campaign
func (rl *RateLimiter) AllowCampaign(ctx context.Context, campaignID string) (*Result, error) {
	return rl.Allow(ctx, campaignKey(campaignID), Rate{Limit: rl.config.CampaignLimitPerMin, Period: time.Minute})
}

// Allow consumes one request from key's budget. A non-positive limit disables the check.
func (rl *RateLimiter) Allow(ctx context.Context, key string, r Rate) (*Result, error) {
	if r.Limit <= 0 {
		return &Result{Allowed: true, Limit: 0, Remaining: 0, ResetAt: time.Now()}, nil
	}
	if r.Period <= 0 {
		return nil, fmt.Errorf("rate period must be positive, got %s", r.Period)
	}

	if rl.redisClient.IsEnabled() && rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, r)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(key, r), nil
}

// allowRedis uses the GCRA limiter shared by every replica
func (rl *RateLimiter) allowRedis(ctx context.Context, key string, r Rate) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   r.Limit,
		Burst:  r.Limit,
		Period: r.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

// allowFallback uses a per-key token bucket local to this process
func (rl *RateLimiter) allowFallback(key string, r Rate) *Result {
	now := time.Now()
	burst := r.Limit * rl.config.BurstMultiplier

	rl.fallbackMutex.Lock()
	entry, exists := rl.fallbackLimiters[key]
	if !exists {
		rps := rate.Limit(float64(r.Limit) / r.Period.Seconds())
		entry = &fallbackEntry{limiter: rate.NewLimiter(rps, burst)}
		rl.fallbackLimiters[key] = entry
	}
	entry.lastSeen = now
	limiter := entry.limiter
	rl.fallbackMutex.Unlock()

	allowed := limiter.AllowN(now, 1)
	remaining := int(limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	perToken := time.Duration(float64(r.Period) / float64(r.Limit))
	result := &Result{
		Allowed:   allowed,
		Limit:     r.Limit,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(burst-remaining) * perToken),
	}
	if !allowed {
		result.RetryAfter = perToken
	}
	return result
}

// cleanupFallbackLimiters drops buckets idle for longer than every
func (rl *RateLimiter) cleanupFallbackLimiters(every time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.fallbackMutex.Lock()
			removed := 0
			for key, entry := range rl.fallbackLimiters {
				if now.Sub(entry.lastSeen) > every {
					delete(rl.fallbackLimiters, key)
					removed++
				}
			}
			rl.fallbackMutex.Unlock()
			if removed > 0 {
				slog.Debug("Cleaned up fallback rate limiters", "removed", removed)
			}
		}
	}
}

// Close stops the janitor goroutine. The Redis client is closed by its owner.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.stop)
		<-rl.done
	})
}

// Config returns the active limits
func (rl *RateLimiter) Config() Config {
	return rl.config
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
	}

	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
	}

	return stats
}
