package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the gin context key carrying the request ID.
	RequestIDKey = "request_id"
	// RequestIDHeader is echoed on every response so a full debugging
	// session can be correlated across analyze, execute, and feedback.
	RequestIDHeader = "X-Request-ID"
)

// RequestID assigns a UUID to every request (or adopts the caller-supplied
// header) and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
