package middleware

import (
	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request ID generation
	"github.com/sirupsen/logrus" // Logging library
)

// RequestIDMiddleware tags every request with a unique identifier,
// echoes it in the X-Request-ID response header and logs the request
// under it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID") // Reuse the caller's ID if present
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
		}).Info("Request handled")
	}
}
