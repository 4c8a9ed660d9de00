package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"nodeagent/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
)

func TestTraceContextMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceContextMiddleware())
	var seenTrace, seenSandbox interface{}
	r.GET("/", func(c *gin.Context) {
		seenTrace = c.Request.Context().Value(contextkey.TraceID)
		seenSandbox = c.Request.Context().Value(contextkey.SandboxID)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(traceIDHeader, "trace-1")
	req.Header.Set(sandboxIDHeader, "sb-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seenTrace != "trace-1" || seenSandbox != "sb-9" {
		t.Fatalf("context not populated: trace=%v sandbox=%v", seenTrace, seenSandbox)
	}
	if w.Header().Get(traceIDHeader) != "trace-1" || w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("unexpected headers: %v", w.Header())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get(traceIDHeader) == "" || w.Header().Get(sandboxIDHeader) != "" {
		t.Fatalf("unexpected headers without input: %v", w.Header())
	}
}
