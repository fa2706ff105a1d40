package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
)

// HandleRateLimitStatus reports the configured limits and limiter health
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ip": c.ClientIP(),
			"limits": gin.H{
				"ip_per_minute":       rl.config.IPLimitPerMin,
				"campaign_per_minute": rl.config.CampaignLimitPerMin,
			},
			"limiter":   rl.GetStats(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// HandleResetCampaign clears the campaign's analytics budget
func (rl *RateLimiter) HandleResetCampaign(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID := c.Param(param)
		if err := rl.InvalidateCampaign(c.Request.Context(), campaignID); err != nil {
			_ = c.Error(apperrors.NewUnavailableError("rate limiter", err))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
