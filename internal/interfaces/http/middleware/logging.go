package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are paths that should not be logged (e.g., /healthz, /metrics).
	SkipPaths []string

	// SlowThreshold is the duration above which a request is considered slow.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns the logging configuration used by the router.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// RequestLogging logs one line per request.  5xx responses are logged at
// Error, 4xx and slow requests at Warn, the rest at Info.
func RequestLogging(logger logging.Logger, config LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("remote_addr", c.ClientIP()),
			logging.String("request_id", GetRequestID(c)),
			logging.String("user", GetUser(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		case config.SlowThreshold > 0 && duration > config.SlowThreshold:
			logger.Warn("HTTP request (slow)", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// Recovery turns a panic into a 500 JSON error and logs the panic value.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("panic recovered",
					logging.Any("panic", recovered),
					logging.String("path", c.Request.URL.Path),
					logging.String("request_id", GetRequestID(c)))
				err := errors.Internal(errors.DefaultMessageForCode(errors.ErrCodeInternal))
				_ = c.Error(err)
				c.AbortWithStatusJSON(errors.HTTPStatusForCode(err.Code),
					gin.H{"code": err.Code.String(), "message": err.Message})
			}
		}()
		c.Next()
	}
}
