package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Logger provides structured logging with campaign analytics helpers
type Logger struct {
	*slog.Logger
	out io.Writer
}

// NewLogger creates a JSON logger writing to stdout
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, slog.LevelInfo)
}

// NewLoggerWithWriter creates a JSON logger writing to w at the given level
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(newHandler(w, level)),
		out:    w,
	}
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(requestID, method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ReportLogger logs a completed campaign report
func (l *Logger) ReportLogger(campaignID, period string, voters int, probability float64, warnings int, duration time.Duration) {
	l.Info("Report Built",
		"campaign_id", campaignID,
		"period", period,
		"voters", voters,
		"win_probability", probability,
		"warnings", warnings,
		"duration_ms", duration.Milliseconds(),
	)
}

// AggregationFailureLogger logs a report that could not be assembled
func (l *Logger) AggregationFailureLogger(campaignID string, err error) {
	l.Error("Report Aggregation Failed",
		"campaign_id", campaignID,
		"error", err.Error(),
	)
}

// GraphWarningLogger logs skipped or adjusted relationships. Only the first
// few messages are attached.
func (l *Logger) GraphWarningLogger(campaignID string, messages []string) {
	sample := messages
	if len(sample) > 5 {
		sample = sample[:5]
	}
	l.Warn("Influence Graph Warnings",
		"campaign_id", campaignID,
		"count", len(messages),
		"sample", sample,
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = file + ":" + strconv.Itoa(line)
	}

	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// CacheLogger logs report cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool) {
	l.Debug("Cache Operation",
		"operation", operation,
		"key", key,
		"hit", hit,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Log(context.Background(), slog.LevelWarn, "Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level slog.Level) {
	out := l.out
	if out == nil {
		out = os.Stdout
	}
	l.Logger = slog.New(newHandler(out, level))
}

// ParseLevel maps a config string onto a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

var startTime = time.Now()
