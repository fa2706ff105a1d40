package errors

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// InitSentry configures the global Sentry client. An empty dsn leaves
// reporting disabled and CaptureError becomes a no-op.
func InitSentry(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	}); err != nil {
		return fmt.Errorf("failed to initialise sentry: %w", err)
	}
	return nil
}

// FlushSentry waits for buffered events before shutdown
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// CaptureError reports a server-side error with request context attached
func CaptureError(c *gin.Context, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_category", string(appErr.Category))
		scope.SetTag("http_status", fmt.Sprintf("%d", appErr.HTTPStatus))
		scope.SetTag("method", c.Request.Method)
		scope.SetTag("route", c.FullPath())
		if appErr.RequestID != "" {
			scope.SetTag("request_id", appErr.RequestID)
		}
		if campaignID := c.Param("campaignID"); campaignID != "" {
			scope.SetExtra("campaign_id", campaignID)
		}

		var cause error = appErr
		if inner := appErr.Unwrap(); inner != nil {
			cause = inner
		}
		sentry.CaptureException(cause)
	})
}
