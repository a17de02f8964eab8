// Package middleware provides gin middleware for the API surface.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key; the logging middleware reads
// the same key for its request-scoped fields.
const requestIDKey = "request_id"

// RequestID attaches a correlation ID to every request, honoring one
// supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the correlation ID for the current request.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
