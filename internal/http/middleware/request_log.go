package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// RequestLog logs one structured line per request after it completes.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestLog")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
			reqLog.Error("request", fields...)
			return
		}
		if c.Writer.Status() >= 500 {
			reqLog.Error("request", fields...)
			return
		}
		reqLog.Info("request", fields...)
	}
}
