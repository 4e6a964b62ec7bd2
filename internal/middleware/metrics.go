package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/service"
)

// Metrics observes every handled request on the metrics service. The route
// template is preferred over the raw URL so ids do not explode label
// cardinality; unmatched requests fall back to the raw path.
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
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
