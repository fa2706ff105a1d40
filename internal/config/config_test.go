package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, 30, cfg.AnalyticsRatePerMin)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 0.5, cfg.Analysis.DecayFactor)
	assert.Equal(t, 2, cfg.Analysis.MaxTraversalDepth)
	assert.Equal(t, 0.65, cfg.Analysis.TurnoutAssumption)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_TYPE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/campaigns?sslmode=disable")
	t.Setenv("REPORT_CACHE_TTL", "90s")
	t.Setenv("DECAY_FACTOR", "0.25")
	t.Setenv("MAX_TRAVERSAL_DEPTH", "3")
	t.Setenv("VOTES_NEEDED", "5000")
	t.Setenv("SYMMETRIC_EDGES", "true")
	t.Setenv("ALLOWED_ORIGINS", " https://dash.example , ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, 90*time.Second, cfg.ReportCacheTTL)
	assert.Equal(t, 0.25, cfg.Analysis.DecayFactor)
	assert.Equal(t, 3, cfg.Analysis.MaxTraversalDepth)
	assert.Equal(t, 5000, cfg.Analysis.VotesNeeded)
	assert.True(t, cfg.Analysis.SymmetricEdges)
	assert.Equal(t, []string{"https://dash.example"}, cfg.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad int", map[string]string{"REDIS_DB": "zero"}, "REDIS_DB"},
		{"bad duration", map[string]string{"REPORT_CACHE_TTL": "5 minutes"}, "REPORT_CACHE_TTL"},
		{"bad bool", map[string]string{"SYMMETRIC_EDGES": "sometimes"}, "SYMMETRIC_EDGES"},
		{"unknown driver", map[string]string{"DATABASE_TYPE": "mysql"}, "DATABASE_TYPE"},
		{"postgres without url", map[string]string{"DATABASE_TYPE": "postgres"}, "DATABASE_URL"},
		{"production without secret", map[string]string{"ENVIRONMENT": "production"}, "JWT_SECRET"},
		{"decay out of range", map[string]string{"DECAY_FACTOR": "1.5"}, "decay factor"},
		{"negative votes needed", map[string]string{"VOTES_NEEDED": "-1"}, "votes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CAMPAIGN_TEST_ONLY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CAMPAIGN_TEST_ONLY") })

	LoadDotEnv(path)
	assert.Equal(t, "from-dotenv", os.Getenv("CAMPAIGN_TEST_ONLY"))

	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
