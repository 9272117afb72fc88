package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template. Requests that match no route
// share one label so scanners cannot blow up series cardinality. Paths in skip are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
