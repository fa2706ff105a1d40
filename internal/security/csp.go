package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
)

const nonceKey = "csp-nonce"

// GenerateNonce generates a cryptographically secure random nonce
func GenerateNonce() (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(nonceBytes), nil
}

// CSPMiddleware sets a nonce-based policy. The API itself serves JSON; the
// policy matters for the swagger UI pages.
func CSPMiddleware(reportURI string) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := GenerateNonce()
		if err != nil {
			abortWith(c, apperrors.NewInternalError("csp nonce", err))
			return
		}

		c.Set(nonceKey, nonce)
		policy := buildCSPPolicy(nonce, strings.HasPrefix(c.Request.URL.Path, "/swagger/"))
		if reportURI != "" {
			policy += "; report-uri " + reportURI
		}
		c.Header("Content-Security-Policy", policy)

		c.Next()
	}
}

// GetNonce retrieves the nonce from the Gin context
func GetNonce(c *gin.Context) string {
	return c.GetString(nonceKey)
}

// buildCSPPolicy constructs the policy. The swagger bundle injects inline
// styles, so only its pages relax style-src.
func buildCSPPolicy(nonce string, swagger bool) string {
	styleSrc := fmt.Sprintf("'self' 'nonce-%s'", nonce)
	if swagger {
		styleSrc += " 'unsafe-inline'"
	}
	return fmt.Sprintf(
		"default-src 'self'; "+
			"script-src 'self' 'nonce-%s'; "+
			"style-src %s; "+
			"img-src 'self' data:; "+
			"connect-src 'self'; "+
			"frame-ancestors 'none'; "+
			"base-uri 'self'; "+
			"form-action 'self'",
		nonce, styleSrc,
	)
}
