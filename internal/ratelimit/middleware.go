package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
)

func setHeaders(c *gin.Context, prefix string, result *Result) {
	c.Header(prefix+"-Limit", strconv.Itoa(result.Limit))
	c.Header(prefix+"-Remaining", strconv.Itoa(result.Remaining))
	c.Header(prefix+"-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func reject(c *gin.Context, result *Result) {
	retry := int(result.RetryAfter.Seconds())
	if retry < 1 {
		retry = 1
	}
	c.Header("Retry-After", strconv.Itoa(retry))

	appErr := apperrors.NewRateLimitError(fmt.Sprintf("%ds", retry))
	appErr.RequestID = c.GetString("request_id")
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
}

// IPRateLimitMiddleware limits every request by client IP
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// never block on limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		setHeaders(c, "X-RateLimit", result)
		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}
			reject(c, result)
			return
		}

		c.Next()
	}
}

// CampaignRateLimitMiddleware limits analytics requests per campaign, read
// from the named route parameter. Report builds are the expensive path, so
// the budget is shared by every caller of the same campaign.
func (rl *RateLimiter) CampaignRateLimitMiddleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID := c.Param(param)
		if campaignID == "" {
			c.Next()
			return
		}

		result, err := rl.AllowCampaign(c.Request.Context(), campaignID)
		if err != nil {
			slog.Error("Campaign rate limit check failed", "campaign_id", campaignID, "error", err)
			c.Next()
			return
		}

		setHeaders(c, "X-RateLimit-Campaign", result)
		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitCampaignBlock()
				rl.metrics.IncrementRateLimitEndpoint(c.FullPath())
			}
			reject(c, result)
			return
		}

		c.Next()
	}
}
