package middleware

import (
	"time"

	"droidcast/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogMiddleware mints a request id into the request context and emits
// one access-log line per request through the context logger, so the line
// carries the trace and span ids when tracing is enabled. Place it after
// TracingMiddleware so the span context is already on the request.
func RequestLogMiddleware(log *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithRequestID(c.Request.Context(), uuid.New().String())
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		log.LogRequest(ctx,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
		)
	}
}
