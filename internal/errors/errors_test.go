package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		prefix   string
	}{
		{"validation", NewValidationError("bad stance", "stance"), CategoryValidation, http.StatusBadRequest, "[VALIDATION_ERROR]"},
		{"not found", NewNotFoundError("voter", "v1"), CategoryNotFound, http.StatusNotFound, "[NOT_FOUND]"},
		{"unauthorized", NewUnauthorizedError("missing token"), CategoryAuth, http.StatusUnauthorized, "[UNAUTHENTICATED]"},
		{"forbidden", NewForbiddenError("camp-1"), CategoryAuth, http.StatusForbidden, "[FORBIDDEN]"},
		{"rate limit", NewRateLimitError("60s"), CategoryRateLimit, http.StatusTooManyRequests, "[RATE_LIMIT_EXCEEDED]"},
		{"unavailable", NewUnavailableError("database", nil), CategoryUnavailable, http.StatusServiceUnavailable, "[UNAVAILABLE]"},
		{"aggregation", NewAggregationError("influence", fmt.Errorf("boom")), CategoryAggregation, http.StatusInternalServerError, "[INTERNAL_ERROR]"},
		{"internal", NewInternalError("oops", nil), CategoryInternal, http.StatusInternalServerError, "[INTERNAL_ERROR]"},
		{"configuration", NewConfigurationError("no secret", nil), CategoryConfiguration, http.StatusInternalServerError, "[CONFIGURATION_ERROR]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Contains(t, tt.err.Error(), tt.prefix)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		status   int
	}{
		{"voter not found", &analysis.VoterNotFoundError{VoterID: "v9"}, CategoryNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", &analysis.VoterNotFoundError{VoterID: "v9"}), CategoryNotFound, http.StatusNotFound},
		{"aggregation", &analysis.AggregationError{Component: "config", Err: fmt.Errorf("bad")}, CategoryAggregation, http.StatusInternalServerError},
		{"unknown stance", &analysis.UnknownStanceError{Stance: "MAYBE"}, CategoryValidation, http.StatusBadRequest},
		{"dangling", &analysis.DanglingReferenceError{RelationshipID: "r1", MissingVoterID: "x"}, CategoryValidation, http.StatusBadRequest},
		{"cancelled", context.Canceled, CategoryTimeout, http.StatusGatewayTimeout},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), CategoryTimeout, http.StatusGatewayTimeout},
		{"plain", fmt.Errorf("something broke"), CategoryInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
		})
	}

	assert.Nil(t, ToAppError(nil))

	original := NewRateLimitError("1s")
	assert.Same(t, original, ToAppError(fmt.Errorf("wrapped: %w", original)))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/voters/:id", func(c *gin.Context) {
		_ = c.Error(&analysis.VoterNotFoundError{VoterID: c.Param("id")})
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/voters/v42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(CategoryNotFound), body["category"])
	assert.Equal(t, float64(http.StatusNotFound), body["http_status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryHandler(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryHandler())
	r.GET("/panic", func(c *gin.Context) {
		panic("graph exploded")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(CategoryInternal))
}

func TestInitSentry_EmptyDSN(t *testing.T) {
	assert.NoError(t, InitSentry("", "test", "dev"))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ctx"))
	base := fmt.Errorf("base")
	wrapped := WrapError(base, "loading %s", "voters")
	assert.EqualError(t, wrapped, "loading voters: base")
	assert.ErrorIs(t, wrapped, base)
}
