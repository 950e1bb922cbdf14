package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"projectmate/internal/metrics"
)

// Metrics 記錄請求次數與耗時。路徑使用路由樣板以避免標籤數量爆增。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}
