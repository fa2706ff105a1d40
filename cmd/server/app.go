package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
	"github.com/stanley00316/election-system-demo-sub004/internal/cache"
	"github.com/stanley00316/election-system-demo-sub004/internal/config"
	"github.com/stanley00316/election-system-demo-sub004/internal/database"
	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
	"github.com/stanley00316/election-system-demo-sub004/internal/ratelimit"
	"github.com/stanley00316/election-system-demo-sub004/internal/resilience"
	"github.com/stanley00316/election-system-demo-sub004/internal/security"
	"github.com/stanley00316/election-system-demo-sub004/internal/server"
)

const version = "1.0.0"

// app owns every long-lived dependency the HTTP server needs
type app struct {
	router  *gin.Engine
	db      *database.DB
	redis   *ratelimit.RedisClient
	limiter *ratelimit.RateLimiter
	reports cache.Store
}

func newApp(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*app, error) {
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory rate limits and report cache", "error", err)
	}

	metrics := monitoring.NewMetrics()
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:       cfg.IPRatePerMin,
		CampaignLimitPerMin: cfg.AnalyticsRatePerMin,
		BurstMultiplier:     1,
	}, metrics)

	var reports cache.Store
	if redisClient.IsEnabled() {
		breaker := resilience.NewCircuitBreaker("report-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		})
		reports = cache.NewGuardedStore(cache.NewRedisStore(redisClient.GetClient(), cfg.ReportCacheTTL), breaker)
	} else {
		reports = cache.NewCache(cfg.ReportCacheTTL)
	}

	repo := database.NewRepository(db)
	settings := analysis.NewSettingsStore(cfg.DataDir)
	analyzer := analysis.NewAnalyzer(repo, settings, cfg.Analysis, logger)

	health := resilience.NewHealthRegistry(2 * time.Second)
	health.Register("database", true, db.PingContext)
	if redisClient.IsEnabled() {
		health.Register("redis", false, redisClient.HealthCheck)
	}

	var auth *security.Authenticator
	if cfg.JWTSecret != "" {
		auth = security.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	} else {
		logger.Warn("JWT_SECRET not set, campaign routes are unauthenticated")
	}

	secCfg := security.DefaultSecurityConfig()
	if len(cfg.AllowedOrigins) > 0 {
		secCfg.AllowedOrigins = cfg.AllowedOrigins
	}
	secCfg.EnableHSTS = cfg.EnableHSTS

	router, err := server.New(server.Options{
		Repo:        repo,
		Analyzer:    analyzer,
		Settings:    settings,
		Limiter:     limiter,
		ReportCache: reports,
		Auth:        auth,
		Health:      health,
		PoolStats:   db.GetPoolStats,
		Metrics:     metrics,
		Logger:      logger,
		Security:    secCfg,
		Version:     version,
	})
	if err != nil {
		limiter.Close()
		apperrors.SafeClose(reports, "report cache")
		apperrors.SafeClose(redisClient, "redis")
		apperrors.SafeClose(db, "database")
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	return &app{
		router:  router,
		db:      db,
		redis:   redisClient,
		limiter: limiter,
		reports: reports,
	}, nil
}

// openDatabase retries postgres connections while the server comes up.
// sqlite failures are local and returned at once.
func openDatabase(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*database.DB, error) {
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.Retryable = func(error) bool { return cfg.DatabaseType == database.DriverPostgres }

	var db *database.DB
	err := resilience.Retry(ctx, retryCfg, func(attempt int) error {
		var err error
		db, err = database.NewDB(database.Options{
			Driver:  cfg.DatabaseType,
			DataDir: cfg.DataDir,
			URL:     cfg.DatabaseURL,
		})
		if err != nil {
			logger.Warn("Database connection failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// Close releases resources in reverse order of construction
func (a *app) Close() error {
	a.limiter.Close()
	return errors.Join(
		a.reports.Close(),
		a.redis.Close(),
		a.db.Close(),
	)
}
