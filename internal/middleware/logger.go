package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key under which the request-correlation id
// is stored; handlers and the stream orchestrator reuse it in log prefixes
// and client-facing error messages.
const RequestIDKey = "request_id"

// RequestID propagates the client's X-Request-ID header, minting one when
// absent, and echoes it on the response so streamed errors can be correlated
// with server logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger logs one line per request in the same [request-id] prefix format
// the generation services log with.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestID := c.GetString(RequestIDKey)
		log.Printf("[%s] %s %s -> %d in %s",
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

// Recovery recovers from handler panics and returns a 500. Stream handlers
// have their own terminal-event guard; this covers everything before the
// response body starts.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
