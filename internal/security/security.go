package security

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxTextLength  int           `json:"max_text_length"`
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	AllowedOrigins []string      `json:"allowed_origins"`
	TrustedProxies []string      `json:"trusted_proxies"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
	CSPReportURI   string        `json:"csp_report_uri"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxTextLength:  2000,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		TrustedProxies: []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout: 30 * time.Second,
	}
}

// CORSMiddleware allows the configured dashboard origins
func CORSMiddleware(config SecurityConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Cache", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

var allowedContentTypes = []string{
	"application/json",
	"application/x-yaml",
	"application/yaml",
}

// ValidateContentType rejects write requests whose body is not JSON or YAML
func ValidateContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		contentType := strings.ToLower(c.GetHeader("Content-Type"))
		for _, allowed := range allowedContentTypes {
			if strings.HasPrefix(contentType, allowed) {
				c.Next()
				return
			}
		}

		appErr := apperrors.NewValidationError("unsupported content type", contentType)
		appErr.HTTPStatus = http.StatusUnsupportedMediaType
		abortWith(c, appErr)
	}
}

// BodyLimit caps request bodies; oversized reads fail inside binding
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequestTimeout bounds the request context; repository and analyzer calls
// observe it through ctx.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Timeout", strconv.Itoa(int(timeout.Seconds())))

		c.Next()
	}
}

// SanitizeText trims free text, drops control characters except newlines
// and tabs, replaces invalid UTF-8 and truncates to maxLen runes.
func SanitizeText(input string, maxLen int) string {
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "�")
	}
	input = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	if maxLen > 0 && utf8.RuneCountInString(input) > maxLen {
		runes := []rune(input)
		input = string(runes[:maxLen])
	}
	return input
}
