package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	maxWriteBodyBytes = 1 << 20
)

// RequestIDMiddleware reuses a well-formed inbound X-Request-ID or assigns a new uuid
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware, or ""
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(RequestID(c), method, path, ip, userAgent, statusCode, duration)

		for _, err := range c.Errors {
			logger.APIErrorLogger(err.Err, method, path, ip, statusCode)
		}

		if duration > 5*time.Second {
			logger.PerformanceLogger("slow_request", duration.Seconds(), "seconds")
		}
		if statusCode >= 500 {
			logger.SystemLogger("server_error", fmt.Sprintf("Status %d for %s %s", statusCode, method, path))
		}
	}
}

// SecurityMonitoringMiddleware logs suspicious requests; it never blocks them
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")
		details := make(map[string]interface{})

		switch {
		case containsSQLInjectionPatterns(c.Request.URL.RawQuery):
			details["type"] = "potential_sql_injection"
			details["query"] = c.Request.URL.RawQuery
		case isWrite(c.Request.Method) && c.Request.ContentLength > maxWriteBodyBytes:
			details["type"] = "large_request_body"
			details["size_bytes"] = c.Request.ContentLength
		case containsSuspiciousUserAgent(userAgent):
			details["type"] = "suspicious_user_agent"
		}

		if len(details) > 0 {
			details["path"] = c.Request.URL.Path
			logger.SecurityLogger("suspicious_activity_detected", c.ClientIP(), userAgent, details)
		}

		c.Next()
	}
}

func isWrite(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

var sqlInjectionPatterns = []string{
	"union select",
	"union all",
	"select * from",
	"drop table",
	"delete from",
	"';--",
	"/*",
	"*/",
	" xp_",
	" sp_",
}

func containsSQLInjectionPatterns(query string) bool {
	q := strings.ToLower(query)
	for _, pattern := range sqlInjectionPatterns {
		if strings.Contains(q, pattern) {
			return true
		}
	}
	return false
}

var suspiciousAgents = []string{
	"sqlmap",
	"nmap",
	"masscan",
	"zmap",
	"dirbuster",
	"gobuster",
	"nikto",
	"acunetix",
	"nessus",
}

func containsSuspiciousUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, agent := range suspiciousAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}
