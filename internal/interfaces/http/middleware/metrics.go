package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latencies.  The path label is the
// matched route pattern so that path parameters do not explode cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		prometheus.RecordHTTPRequest(m, c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
