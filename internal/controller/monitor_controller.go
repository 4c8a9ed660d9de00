package controller

import (
	"time"

	"nodeagent/internal/quota"
	"nodeagent/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// MonitorController exposes disk usage monitors over HTTP.
type MonitorController struct {
	manager         *quota.Manager
	defaultInterval time.Duration
}

// NewMonitorController creates a new MonitorController. defaultInterval
// applies when a request leaves the interval unset.
func NewMonitorController(manager *quota.Manager, defaultInterval time.Duration) *MonitorController {
	return &MonitorController{manager: manager, defaultInterval: defaultInterval}
}

// StartMonitorRequest starts one monitor.
type StartMonitorRequest struct {
	Path       string `json:"path" binding:"required"`
	IntervalMs int64  `json:"intervalMs"`
	LimitBytes uint64 `json:"limitBytes"`
}

// StartMonitorResponse carries the handle of a new monitor.
type StartMonitorResponse struct {
	Handle string `json:"handle"`
}

// CheckRequest compares a monitor with a limit.
type CheckRequest struct {
	LimitBytes uint64 `json:"limitBytes" binding:"required"`
}

// Start handles POST /monitors.
func (h *MonitorController) Start(c *gin.Context) {
	var req StartMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	interval := h.defaultInterval
	if req.IntervalMs > 0 {
		interval = time.Duration(req.IntervalMs) * time.Millisecond
	}
	var opts []quota.StartOption
	if req.LimitBytes > 0 {
		opts = append(opts, quota.WithLimit(req.LimitBytes))
	}
	handle, err := h.manager.StartMonitoring(c.Request.Context(), req.Path, interval, opts...)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, StartMonitorResponse{Handle: handle})
}

// List handles GET /monitors.
func (h *MonitorController) List(c *gin.Context) {
	response.Success(c, h.manager.List())
}

// Get handles GET /monitors/:id.
func (h *MonitorController) Get(c *gin.Context) {
	info, err := h.manager.Describe(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// Latest handles GET /monitors/:id/usage. Data is null until the first
// measurement completes.
func (h *MonitorController) Latest(c *gin.Context) {
	report, ok, err := h.manager.LatestUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Success(c, nil)
		return
	}
	response.Success(c, report)
}

// Check handles POST /monitors/:id/check.
func (h *MonitorController) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	res, err := h.manager.Check(c.Request.Context(), c.Param("id"), req.LimitBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Stop handles DELETE /monitors/:id.
func (h *MonitorController) Stop(c *gin.Context) {
	if err := h.manager.StopMonitoring(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
