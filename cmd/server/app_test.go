package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley00316/election-system-demo-sub004/internal/config"
	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
)

func newTestApp(t *testing.T, jwtSecret string) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("JWT_SECRET", jwtSecret)
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func TestNewApp_HealthReportsDatabase(t *testing.T) {
	a := newTestApp(t, "")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Services []struct {
			Name string `json:"service_name"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, version, body.Version)
	require.Len(t, body.Services, 1)
	assert.Equal(t, "database", body.Services[0].Name)
	assert.False(t, a.redis.IsEnabled())
}

func TestNewApp_ServesCampaignRoutes(t *testing.T) {
	a := newTestApp(t, "")

	payload := `{"name":"Ada","stance":"SUPPORT"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/c1/voters", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/c1/analytics", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), `"total_voters":1`), w.Body.String())
}

func TestNewApp_RequiresTokenWhenSecretSet(t *testing.T) {
	a := newTestApp(t, "test-secret")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/c1/voters", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewApp_MetricsIncludePoolAndCompression(t *testing.T) {
	a := newTestApp(t, "")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "database")
	assert.Contains(t, body, "compression")
	assert.Contains(t, string(body["database"]), `"driver":"sqlite"`)
}
