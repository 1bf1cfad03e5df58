package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clamm-engine/internal/metrics"
)

// unmatched labels requests that hit no route, keeping label cardinality
// bounded.
const unmatched = "unmatched"

func MetricsMiddleware(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		path := c.FullPath()
		if _, ok := skipped[path]; ok {
			c.Next()
			return
		}
		if path == "" {
			path = unmatched
		}
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
