// Package http assembles the portal's gin engine and HTTP server.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/af3-portal/internal/interfaces/http/handlers"
	"github.com/turtacn/af3-portal/internal/interfaces/http/middleware"
)

type RouterConfig struct {
	// Handlers
	PageHandler       *handlers.PageHandler
	SubmissionHandler *handlers.SubmissionHandler
	JobHandler        *handlers.JobHandler
	HealthHandler     *handlers.HealthHandler

	// Middleware
	Identity    middleware.IdentityConfig
	Logging     middleware.LoggingConfig
	MaxBodySize int64
	// CORS is applied when it lists at least one origin.
	CORS middleware.CORSConfig
	// SubmitLimiter throttles POST /api/v1/jobs per caller when set.
	SubmitLimiter middleware.RateLimiter

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the gin engine.  Nil handlers leave their routes out.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = prometheus.NewNoopAppMetrics()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID())
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORS))
	}
	r.Use(middleware.Identity(cfg.Identity))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.MaxBodySize > 0 {
		r.Use(bodyLimit(cfg.MaxBodySize))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.PageHandler != nil {
		r.SetHTMLTemplate(handlers.PageTemplate())
		cfg.PageHandler.RegisterRoutes(r, api)
	}
	if cfg.SubmissionHandler != nil {
		cfg.SubmissionHandler.RegisterRoutes(api)
	}
	if cfg.JobHandler != nil {
		var submitChain []gin.HandlerFunc
		if cfg.SubmitLimiter != nil {
			submitChain = append(submitChain, middleware.RateLimit(cfg.SubmitLimiter))
		}
		cfg.JobHandler.RegisterRoutes(api, submitChain...)
	}

	r.NoRoute(handlers.NotFound)
	return r
}

func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
