package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, 2000, config.MaxTextLength)
	assert.Equal(t, int64(1<<20), config.MaxBodyBytes)
	assert.Contains(t, config.AllowedOrigins, "http://localhost:3000")
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
	assert.False(t, config.EnableHSTS)
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"trims", "  hello  ", 0, "hello"},
		{"drops control", "call\x00 back\x07", 0, "call back"},
		{"keeps newlines", "line one\nline two", 0, "line one\nline two"},
		{"invalid utf8", "ab\xffcd", 0, "ab�cd"},
		{"truncates runes", "台北市大安區", 3, "台北市"},
		{"no limit", strings.Repeat("a", 50), 0, strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input, tt.maxLen))
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(SecurityConfig{EnableHSTS: true}), CSPMiddleware(""))
	r.GET("/test", func(c *gin.Context) {
		assert.NotEmpty(t, GetNonce(c))
		c.Status(http.StatusOK)
	})
	r.GET("/swagger/index.html", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.NotContains(t, csp, "unsafe-inline")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "unsafe-inline")
}

func TestGenerateNonceUnique(t *testing.T) {
	a, err := GenerateNonce()
	require.NoError(t, err)
	b, err := GenerateNonce()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidateContentType(t *testing.T) {
	r := gin.New()
	r.Use(ValidateContentType())
	r.POST("/voters", func(c *gin.Context) { c.Status(http.StatusCreated) })

	tests := []struct {
		name        string
		contentType string
		body        string
		want        int
	}{
		{"json", "application/json; charset=utf-8", `{}`, http.StatusCreated},
		{"yaml", "application/x-yaml", "a: 1", http.StatusCreated},
		{"yaml registered type", "application/yaml", "a: 1", http.StatusCreated},
		{"empty body", "", "", http.StatusCreated},
		{"xml rejected", "application/xml", "<x/>", http.StatusUnsupportedMediaType},
		{"form rejected", "application/x-www-form-urlencoded", "a=b", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/voters", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/echo", func(c *gin.Context) {
		var payload map[string]string
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"b"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(RequestTimeout(50 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-Timeout"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(DefaultSecurityConfig()))
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthenticator_TokenRoundTrip(t *testing.T) {
	auth := NewAuthenticator("test-secret", "campaign-analytics")
	require.NotNil(t, auth)

	token, err := auth.IssueToken("staff-1", []string{"camp-1"}, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.Subject)
	assert.True(t, claims.CanAccess("camp-1"))
	assert.False(t, claims.CanAccess("camp-2"))

	wildcard := &Claims{Campaigns: []string{"*"}}
	assert.True(t, wildcard.CanAccess("anything"))
}

func TestAuthenticator_RejectsBadTokens(t *testing.T) {
	auth := NewAuthenticator("test-secret", "campaign-analytics")

	expired, err := auth.IssueToken("staff-1", []string{"camp-1"}, -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewAuthenticator("other-secret", "campaign-analytics").IssueToken("staff-1", []string{"camp-1"}, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewAuthenticator("test-secret", "someone-else").IssueToken("staff-1", []string{"camp-1"}, time.Hour)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Campaigns: []string{"*"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": wrongIssuer,
		"alg none":     noneAlg,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ParseToken(token)
			assert.Error(t, err)
		})
	}
}

func TestNewAuthenticator_EmptySecretDisables(t *testing.T) {
	assert.Nil(t, NewAuthenticator("", "x"))

	var auth *Authenticator
	r := gin.New()
	r.GET("/campaigns/:campaignID", auth.RequireCampaignAccess("campaignID"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/campaigns/camp-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCampaignAccess(t *testing.T) {
	auth := NewAuthenticator("test-secret", "")
	good, err := auth.IssueToken("staff-1", []string{"camp-1"}, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/campaigns/:campaignID", auth.RequireCampaignAccess("campaignID"), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Subject)
	})

	tests := []struct {
		name     string
		path     string
		header   string
		want     int
		category string
	}{
		{"allowed", "/campaigns/camp-1", "Bearer " + good, http.StatusOK, ""},
		{"missing header", "/campaigns/camp-1", "", http.StatusUnauthorized, "auth"},
		{"not bearer", "/campaigns/camp-1", "Basic abc", http.StatusUnauthorized, "auth"},
		{"bad token", "/campaigns/camp-1", "Bearer nope", http.StatusUnauthorized, "auth"},
		{"other campaign", "/campaigns/camp-2", "Bearer " + good, http.StatusForbidden, "auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)

			if tt.category != "" {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.category, body["category"])
			} else {
				assert.Equal(t, "staff-1", w.Body.String())
			}
		})
	}
}
