package middleware

import (
	"inventrobil-pos/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID reuses an incoming X-Request-ID or mints one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		logger.SetRequestID(c, id)
		c.Header(logger.RequestIDHeader, id)
		c.Next()
	}
}
