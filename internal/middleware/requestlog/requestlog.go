// Package requestlog tags every request with an id and logs its outcome
package requestlog

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/logger"
)

const HeaderRequestID = "X-Request-ID"

// Middleware returns a middleware function that logs request details
func Middleware() gin.HandlerFunc {
	httpLog := logger.HTTP()

	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		httpLog.Debug("Request started",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"remote_addr", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		c.Next()

		latency := time.Since(startTime)
		status := c.Writer.Status()

		level := log.InfoLevel
		if status >= 500 {
			level = log.ErrorLevel
		} else if status >= 400 {
			level = log.WarnLevel
		}

		httpLog.Log(level, "Request completed",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
