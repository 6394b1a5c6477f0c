package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key for the request ID.
const ContextKeyRequestID = "request_id"

// A client-supplied id longer than this is replaced rather than echoed,
// keeping the response header and log fields bounded.
const maxRequestIDLength = 64

// RequestIDMiddleware tags every request with an id that flows into the
// response metadata and the X-Request-ID header. A well-formed inbound
// header is honored so browser clients can correlate retries.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}
