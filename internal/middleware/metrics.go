package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridematch/internal/observability"
)

// Metrics records request counts and latencies per route and status code.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		observability.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}
