package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/service"
)

// Metrics records latency and status counts for every handled request.
// Unmatched routes fall back to the raw URL path so scans of nonexistent
// endpoints stay visible without exploding the label space per route.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if path == "/metrics" {
			// Scrapes would otherwise dominate the request histograms.
			return
		}

		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
