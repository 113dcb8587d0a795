// Package middleware holds the gin middleware of the plot API.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gostatsplot/internal"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request through logger
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := "[API] %s %s %d %s id=%s"
		args := []interface{}{c.Request.Method, c.FullPath(), status, time.Since(start), c.GetString("request_id")}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(line, args...)
		case status >= http.StatusBadRequest:
			logger.Warn(line, args...)
		default:
			logger.Debug(line, args...)
		}
	}
}

// MaxBody caps request bodies at limit bytes. A non-positive limit
// disables the cap.
func MaxBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
