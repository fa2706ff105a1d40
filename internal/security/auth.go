package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
)

const claimsKey = "auth_claims"

// Claims identifies a campaign staff member. Campaigns lists the campaign
// ids the bearer may read and write; "*" grants every campaign.
type Claims struct {
	Campaigns []string `json:"campaigns"`
	Role      string   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// CanAccess reports whether the token covers campaignID
func (c *Claims) CanAccess(campaignID string) bool {
	for _, id := range c.Campaigns {
		if id == "*" || id == campaignID {
			return true
		}
	}
	return false
}

// Authenticator verifies HS256 bearer tokens
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator returns nil for an empty secret, which disables auth
func NewAuthenticator(secret, issuer string) *Authenticator {
	if secret == "" {
		return nil
	}
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// IssueToken signs a token; used by the CLI and tests
func (a *Authenticator) IssueToken(subject string, campaigns []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Campaigns: campaigns,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies signature, algorithm, expiry and issuer
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireCampaignAccess rejects requests without a verified token for the
// campaign named by param. A nil Authenticator lets every request through.
func (a *Authenticator) RequireCampaignAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a == nil {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			abortWith(c, apperrors.NewUnauthorizedError("missing bearer token"))
			return
		}

		claims, err := a.ParseToken(token)
		if err != nil {
			abortWith(c, apperrors.NewUnauthorizedError("invalid or expired token"))
			return
		}

		campaignID := c.Param(param)
		if campaignID != "" && !claims.CanAccess(campaignID) {
			abortWith(c, apperrors.NewForbiddenError(campaignID))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the verified claims stored by RequireCampaignAccess
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func abortWith(c *gin.Context, appErr *apperrors.AppError) {
	appErr.RequestID = c.GetString("request_id")
	apperrors.LogError(c, appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
}
