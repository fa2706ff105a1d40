package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
	"github.com/stanley00316/election-system-demo-sub004/internal/cache"
	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
	"github.com/stanley00316/election-system-demo-sub004/internal/middleware"
	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
	"github.com/stanley00316/election-system-demo-sub004/internal/ratelimit"
	"github.com/stanley00316/election-system-demo-sub004/internal/resilience"
	"github.com/stanley00316/election-system-demo-sub004/internal/security"
)

// Options wires the router's collaborators. Auth may be nil, which leaves
// campaign routes open; every other pointer is required.
type Options struct {
	Repo        Repository
	Analyzer    *analysis.Analyzer
	Settings    *analysis.SettingsStore
	Limiter     *ratelimit.RateLimiter
	ReportCache cache.Store
	Auth        *security.Authenticator
	Health      *resilience.HealthRegistry
	PoolStats   func() map[string]interface{}
	Metrics     *monitoring.Metrics
	Logger      *monitoring.Logger
	Security    security.SecurityConfig
	Version     string
}

func (o Options) validate() error {
	switch {
	case o.Repo == nil:
		return fmt.Errorf("server: repository is required")
	case o.Analyzer == nil:
		return fmt.Errorf("server: analyzer is required")
	case o.Settings == nil:
		return fmt.Errorf("server: settings store is required")
	case o.Limiter == nil:
		return fmt.Errorf("server: rate limiter is required")
	case o.ReportCache == nil:
		return fmt.Errorf("server: report cache is required")
	case o.Metrics == nil || o.Logger == nil:
		return fmt.Errorf("server: metrics and logger are required")
	}
	return nil
}

// New builds the gin engine with the full middleware chain and API routes
func New(opts Options) (*gin.Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := RegisterValidators(); err != nil {
		return nil, err
	}
	if opts.Health == nil {
		opts.Health = resilience.NewHealthRegistry(0)
	}
	defaults := security.DefaultSecurityConfig()
	if opts.Security.RequestTimeout <= 0 {
		opts.Security.RequestTimeout = defaults.RequestTimeout
	}
	if opts.Security.MaxBodyBytes <= 0 {
		opts.Security.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if opts.Security.MaxTextLength <= 0 {
		opts.Security.MaxTextLength = defaults.MaxTextLength
	}
	if len(opts.Security.AllowedOrigins) == 0 {
		opts.Security.AllowedOrigins = defaults.AllowedOrigins
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.Security.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(opts.Metrics, opts.Logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(opts.Logger))

	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	compression := middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	r.Use(compression.Handler())

	r.Use(security.SecurityHeadersMiddleware(opts.Security))
	r.Use(security.CSPMiddleware(opts.Security.CSPReportURI))
	r.Use(security.CORSMiddleware(opts.Security))
	r.Use(security.RequestTimeout(opts.Security.RequestTimeout))
	r.Use(security.BodyLimit(opts.Security.MaxBodyBytes))
	r.Use(security.ValidateContentType())
	r.Use(opts.Limiter.IPRateLimitMiddleware())

	h := &Handler{
		repo:     opts.Repo,
		analyzer: opts.Analyzer,
		settings: opts.Settings,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		maxText:  opts.Security.MaxTextLength,
	}

	r.GET("/health", healthHandler(opts.Health, opts.Version))
	r.GET("/metrics", func(c *gin.Context) {
		body := gin.H{
			"metrics":     opts.Metrics.GetStats(),
			"rate_limit":  opts.Limiter.GetStats(),
			"compression": compression.GetStats(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}
		if opts.PoolStats != nil {
			body["database"] = opts.PoolStats()
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.GET("/rate-limit", opts.Limiter.HandleRateLimitStatus())

	campaign := api.Group("/campaigns/:" + campaignParam)
	campaign.Use(opts.Auth.RequireCampaignAccess(campaignParam))
	{
		campaign.POST("/voters", h.createVoter)
		campaign.GET("/voters", h.listVoters)
		campaign.GET("/voters/:voterID", h.getVoter)
		campaign.DELETE("/voters/:voterID", h.deleteVoter)

		campaign.POST("/relationships", h.createRelationship)
		campaign.GET("/relationships", h.listRelationships)

		campaign.POST("/contacts", h.createContact)
		campaign.GET("/contacts", h.listContacts)
		campaign.PATCH("/contacts/:contactID", h.updateContact)

		campaign.POST("/districts", h.createDistrict)
		campaign.GET("/districts", h.listDistricts)

		expensive := campaign.Group("", opts.Limiter.CampaignRateLimitMiddleware(campaignParam))
		expensive.GET("/analytics",
			cache.Middleware(opts.ReportCache, h.reportCacheKey, opts.Metrics, opts.Logger),
			h.analytics)
		expensive.GET("/influence/:voterID", h.voterInfluence)
		expensive.GET("/influencers", h.topInfluencers)
		expensive.POST("/influence/recompute", h.recomputeInfluence)
		expensive.GET("/districts/:districtID/breakdown", h.districtBreakdown)
		expensive.GET("/win-probability", h.winProbability)

		campaign.GET("/settings", h.getSettings)
		campaign.PUT("/settings", h.putSettings)

		campaign.DELETE("/rate-limit", opts.Limiter.HandleResetCampaign(campaignParam))
	}

	return r, nil
}

func healthHandler(registry *resilience.HealthRegistry, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, services := registry.Check(c.Request.Context())

		code := http.StatusOK
		if status == resilience.StatusDown {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
			"services":  services,
		})
	}
}
