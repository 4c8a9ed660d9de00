package controller

import (
	"context"
	"sort"
	"time"

	appErr "nodeagent/pkg/errors"
	"nodeagent/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Pinger is a backend whose connectivity gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness and readiness probes.
type HealthController struct {
	timeout time.Duration
	names   []string
	checks  map[string]Pinger
}

func NewHealthController(timeout time.Duration) *HealthController {
	return &HealthController{timeout: timeout, checks: make(map[string]Pinger)}
}

// Add registers a backend checked by Ready.
func (h *HealthController) Add(name string, p Pinger) {
	if _, ok := h.checks[name]; !ok {
		h.names = append(h.names, name)
		sort.Strings(h.names)
	}
	h.checks[name] = p
}

// Live handles GET /healthz.
func (h *HealthController) Live(c *gin.Context) {
	response.Success(c, nil)
}

// Ready handles GET /readyz. Every backend is pinged; any failure makes
// the agent unready and is reported under its name.
func (h *HealthController) Ready(c *gin.Context) {
	status := make(map[string]string, len(h.names))
	failed := false
	for _, name := range h.names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		err := h.checks[name].Ping(ctx)
		cancel()
		if err != nil {
			status[name] = err.Error()
			failed = true
			continue
		}
		status[name] = "ok"
	}
	if failed {
		details := make(map[string]interface{}, len(status))
		for k, v := range status {
			details[k] = v
		}
		response.Error(c, appErr.New(appErr.ServiceUnavailable).WithMessage("dependency check failed").WithDetails(details))
		return
	}
	response.Success(c, status)
}
