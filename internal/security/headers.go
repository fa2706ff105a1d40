package security

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware adds the standard hardening headers to every response
func SecurityHeadersMiddleware(config SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		// voter records are personal data
		c.Header("Cache-Control", "no-store")

		if config.EnableHSTS || c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
