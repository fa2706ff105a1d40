package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
)

// Config is the process configuration read from the environment
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DataDir      string
	DatabaseType string
	DatabaseURL  string

	JWTSecret string
	JWTIssuer string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SentryDSN string

	ReportCacheTTL      time.Duration
	AnalyticsRatePerMin int
	IPRatePerMin        int
	AllowedOrigins      []string
	EnableHSTS          bool

	Analysis analysis.Config
}

// LoadDotEnv reads .env when present; a missing file is not an error
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		slog.Debug("No .env file found, using system environment variables")
	}
}

// Load reads and validates the environment. Malformed values are errors
// rather than silent fallbacks.
func Load() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		DataDir:      getEnvOrDefault("DATA_DIR", "./data"),
		DatabaseType: strings.ToLower(getEnvOrDefault("DATABASE_TYPE", "sqlite")),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getEnvOrDefault("JWT_ISSUER", "campaign-analytics"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.int("REDIS_DB", 0),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		ReportCacheTTL:      p.duration("REPORT_CACHE_TTL", 5*time.Minute),
		AnalyticsRatePerMin: p.int("ANALYTICS_RATE_PER_MIN", 30),
		IPRatePerMin:        p.int("IP_RATE_PER_MIN", 120),
		AllowedOrigins:      splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		EnableHSTS:          p.bool("ENABLE_HSTS", false),
	}

	a := analysis.DefaultConfig()
	a.DecayFactor = p.float("DECAY_FACTOR", a.DecayFactor)
	a.MaxTraversalDepth = p.int("MAX_TRAVERSAL_DEPTH", a.MaxTraversalDepth)
	a.MinSampleSize = p.int("MIN_SAMPLE_SIZE", a.MinSampleSize)
	a.TurnoutAssumption = p.float("TURNOUT_ASSUMPTION", a.TurnoutAssumption)
	a.VotesNeeded = p.int("VOTES_NEEDED", a.VotesNeeded)
	a.SymmetricEdges = p.bool("SYMMETRIC_EDGES", a.SymmetricEdges)
	a.UnknownStanceAsNeutral = p.bool("UNKNOWN_STANCE_AS_NEUTRAL", a.UnknownStanceAsNeutral)
	cfg.Analysis = a

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(p.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("DATABASE_TYPE must be sqlite or postgres, got %q", c.DatabaseType)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.ReportCacheTTL < 0 {
		return fmt.Errorf("REPORT_CACHE_TTL must not be negative")
	}
	if c.AnalyticsRatePerMin < 0 || c.IPRatePerMin < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analytics defaults: %w", err)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects every malformed variable so one run reports them all
type parser struct {
	errs []string
}

func (p *parser) fail(key, value, kind string) {
	p.errs = append(p.errs, fmt.Sprintf("%s=%q is not a valid %s", key, value, kind))
}

func (p *parser) int(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, "integer")
		return def
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, "number")
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, "boolean")
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, "duration")
		return def
	}
	return v
}
