package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(RequestIDHeader) == "" {
			c.Request.Header.Set(RequestIDHeader, uuid.NewString())
		}
		c.Set("requestID", c.GetHeader(RequestIDHeader))
		c.Header(RequestIDHeader, c.GetHeader(RequestIDHeader))
		c.Next()
	}
}
