// internal/api/middleware.go
package api

import (
	"strconv"
	"time"

	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/metrics"

	"github.com/gin-gonic/gin"
)

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		if route == "/health" || route == "/metrics" {
			return
		}
		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": elapsed.Milliseconds(),
			"clientIp":   c.ClientIP(),
		}
		if status >= 500 {
			log.Error("request failed", fields)
			return
		}
		log.Info("request served", fields)
	}
}
