package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"certverify.client/internal/metrics"
)

// MetricsMiddleware records request counts and latency per route template.
// Unmatched routes are grouped under "unmatched".
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
