package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-portal-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// random paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics observes every request under its route template, e.g.
// /api/v1/:resource/:id.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
