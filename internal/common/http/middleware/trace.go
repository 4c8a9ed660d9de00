package middleware

import (
	"context"
	"strings"

	"nodeagent/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDHeader   = "X-Trace-Id"
	requestIDHeader = "X-Request-Id"
	sandboxIDHeader = "X-Sandbox-Id"

	traceIDContextKey   = "trace_id"
	requestIDContextKey = "request_id"
	sandboxIDContextKey = "sandbox_id"
)

// TraceContextMiddleware ensures trace and request ids are in the request
// context and echoed in response headers. A sandbox id header, when sent,
// is carried into the context so log lines can be attributed to it.
func TraceContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		traceID := strings.TrimSpace(c.GetHeader(traceIDHeader))
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(traceIDContextKey, traceID)
		ctx = context.WithValue(ctx, contextkey.TraceID, traceID)
		c.Writer.Header().Set(traceIDHeader, traceID)

		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		ctx = context.WithValue(ctx, contextkey.RequestID, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		if sandboxID := strings.TrimSpace(c.GetHeader(sandboxIDHeader)); sandboxID != "" {
			c.Set(sandboxIDContextKey, sandboxID)
			ctx = context.WithValue(ctx, contextkey.SandboxID, sandboxID)
			c.Writer.Header().Set(sandboxIDHeader, sandboxID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
