package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAuth          ErrorCategory = "auth"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryUnavailable   ErrorCategory = "unavailable"
	CategoryAggregation   ErrorCategory = "aggregation"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// AppError wraps an errbuilder error with the HTTP mapping used by handlers
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory
	HTTPStatus int
	Timestamp  time.Time
	RequestID  string
	StackTrace string
	Fields     map[string]string

	internal bool
}

// ErrorResponse is the JSON body rendered for a failed request
type ErrorResponse struct {
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	Category   ErrorCategory     `json:"category"`
	HTTPStatus int               `json:"http_status"`
	Details    map[string]string `json:"details,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Code returns the stable client-facing error code
func (e *AppError) Code() string {
	switch e.ErrBuilder.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		return "VALIDATION_ERROR"
	case errbuilder.CodeNotFound:
		return "NOT_FOUND"
	case errbuilder.CodeUnauthenticated:
		return "UNAUTHENTICATED"
	case errbuilder.CodePermissionDenied:
		return "FORBIDDEN"
	case errbuilder.CodeUnavailable:
		return "UNAVAILABLE"
	case errbuilder.CodeDeadlineExceeded:
		return "TIMEOUT_ERROR"
	case errbuilder.CodeResourceExhausted:
		return "RATE_LIMIT_EXCEEDED"
	case errbuilder.CodeInternal:
		return "INTERNAL_ERROR"
	case errbuilder.CodeFailedPrecondition:
		return "CONFIGURATION_ERROR"
	}
	return "UNKNOWN_ERROR"
}

// Error renders "[CODE] message"
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), e.ErrBuilder.Msg)
}

// Response builds the client-facing body; internal details are withheld
func (e *AppError) Response() ErrorResponse {
	resp := ErrorResponse{
		Error:      e.ErrBuilder.Msg,
		Code:       e.Code(),
		Category:   e.Category,
		HTTPStatus: e.HTTPStatus,
		RequestID:  e.RequestID,
		Timestamp:  e.Timestamp,
	}
	if !e.internal {
		resp.Details = e.Fields
	}
	return resp
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

func withDetails(builder *errbuilder.ErrBuilder, details map[string]string) *errbuilder.ErrBuilder {
	if len(details) == 0 {
		return builder
	}
	errorMap := errbuilder.ErrorMap{}
	for key, value := range details {
		errorMap.Set(key, errors.New(value))
	}
	return builder.WithDetails(errbuilder.NewErrDetails(errorMap))
}

func build(builder *errbuilder.ErrBuilder, cause error, fields map[string]string, category ErrorCategory, status int) *AppError {
	builder = withDetails(builder, fields)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	appErr := NewAppError(builder, category, status)
	appErr.Fields = fields
	return appErr
}

// NewValidationError creates a 400 error; an optional detail is attached as validation_details
func NewValidationError(message string, details ...interface{}) *AppError {
	var fields map[string]string
	if len(details) > 0 {
		fields = map[string]string{"validation_details": fmt.Sprintf("%v", details[0])}
	}
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)
	return build(builder, nil, fields, CategoryValidation, http.StatusBadRequest)
}

// NewValidationErrorWithMap creates a validation error carrying one entry per invalid field
func NewValidationErrorWithMap(validationErrors map[string]string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Request validation failed")
	return build(builder, nil, validationErrors, CategoryValidation, http.StatusBadRequest)
}

// NewNotFoundError creates a 404 for a missing resource
func NewNotFoundError(resource, id string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s not found", resource))
	return build(builder, nil, map[string]string{"resource": resource, "id": id},
		CategoryNotFound, http.StatusNotFound)
}

// NewUnauthorizedError creates a 401 for a missing or unverifiable token
func NewUnauthorizedError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnauthenticated).
		WithMsg(message)
	return build(builder, nil, nil, CategoryAuth, http.StatusUnauthorized)
}

// NewForbiddenError creates a 403 for a verified caller without campaign access
func NewForbiddenError(campaignID string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodePermissionDenied).
		WithMsg("Access to campaign denied")
	return build(builder, nil, map[string]string{"campaign_id": campaignID},
		CategoryAuth, http.StatusForbidden)
}

// NewRateLimitError creates a 429 with a retry hint
func NewRateLimitError(retryAfter string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded")
	return build(builder, nil, map[string]string{"retry_after": retryAfter},
		CategoryRateLimit, http.StatusTooManyRequests)
}

// NewTimeoutError creates a 504
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)
	return build(builder, cause, nil, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewUnavailableError creates a 503 for a backing store that cannot be reached
func NewUnavailableError(service string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s unavailable", service))
	return build(builder, cause, map[string]string{"service": service},
		CategoryUnavailable, http.StatusServiceUnavailable)
}

// NewAggregationError creates a 500 naming the report component that failed
func NewAggregationError(component string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Report aggregation failed")
	return build(builder, cause, map[string]string{"component": component},
		CategoryAggregation, http.StatusInternalServerError)
}

// NewInternalError creates an internal server error. The message goes to the
// logs only; clients see a generic body.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error")
	appErr := build(builder, cause, map[string]string{"internal_details": message},
		CategoryInternal, http.StatusInternalServerError)
	appErr.internal = true
	if gin.Mode() == gin.DebugMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Configuration error")
	appErr := build(builder, cause, map[string]string{"config_details": message},
		CategoryConfiguration, http.StatusInternalServerError)
	appErr.internal = true
	return appErr
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ToAppError converts any error to an AppError. Analytics errors keep their
// meaning: an unknown voter is a 404, a failed report is a 500 aggregation error.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		notFound *analysis.VoterNotFoundError
		aggErr   *analysis.AggregationError
		unknown  *analysis.UnknownStanceError
		dangling *analysis.DanglingReferenceError
	)
	switch {
	case errors.As(err, &notFound):
		return NewNotFoundError("voter", notFound.VoterID)
	case errors.As(err, &aggErr):
		return NewAggregationError(aggErr.Component, aggErr.Err)
	case errors.As(err, &unknown):
		return NewValidationError(unknown.Error())
	case errors.As(err, &dangling):
		return NewValidationError(dangling.Error())
	case errors.Is(err, context.Canceled):
		return NewTimeoutError("Request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("Request deadline exceeded", err)
	}

	var ebErr *errbuilder.ErrBuilder
	if errors.As(err, &ebErr) {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// ErrorHandler renders the last gin error as a structured response
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		appErr.RequestID = c.GetString("request_id")

		LogError(c, appErr)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			CaptureError(c, appErr)
		}

		c.JSON(appErr.HTTPStatus, appErr.Response())
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		appErr.StackTrace = captureStackTrace()
		appErr.RequestID = c.GetString("request_id")

		LogError(c, appErr)
		CaptureError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
	})
}

// LogError logs an error with a level chosen by category
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", err.RequestID,
	)

	errorMsg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryAuth, CategoryRateLimit:
		if details := err.ErrBuilder.Details; len(details.Errors) > 0 {
			logEntry.Warn(errorMsg, "details", details.Errors)
		} else {
			logEntry.Warn(errorMsg)
		}
	case CategoryTimeout, CategoryUnavailable:
		if cause != nil {
			logEntry.Info(errorMsg, "cause", cause)
		} else {
			logEntry.Info(errorMsg)
		}
	default:
		if cause != nil {
			logEntry.Error(errorMsg, "cause", cause)
		} else {
			logEntry.Error(errorMsg)
		}
	}

	if err.StackTrace != "" && gin.Mode() == gin.DebugMode {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}

// SafeClose closes a resource and logs any error
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
