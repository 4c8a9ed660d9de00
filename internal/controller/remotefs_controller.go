package controller

import (
	"strings"

	"nodeagent/internal/fetcher"
	"nodeagent/internal/remotefs"
	"nodeagent/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// RemoteFSController answers queries against remote filesystems and stages
// artifacts into sandboxes.
type RemoteFSController struct {
	router  *remotefs.Router
	fetcher *fetcher.Fetcher
}

// NewRemoteFSController creates a new RemoteFSController.
func NewRemoteFSController(router *remotefs.Router, f *fetcher.Fetcher) *RemoteFSController {
	return &RemoteFSController{router: router, fetcher: f}
}

// ExistsResponse answers an existence query.
type ExistsResponse struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// SizeResponse answers a size query.
type SizeResponse struct {
	Path  string `json:"path"`
	Bytes uint64 `json:"bytes"`
}

// Exists handles GET /remotefs/exists?path=.
func (h *RemoteFSController) Exists(c *gin.Context) {
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		response.BadRequest(c, "path is required")
		return
	}
	fs, err := h.router.Resolve(path)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, err := fs.Exists(c.Request.Context(), path)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ExistsResponse{Path: path, Exists: ok})
}

// Size handles GET /remotefs/size?path=.
func (h *RemoteFSController) Size(c *gin.Context) {
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		response.BadRequest(c, "path is required")
		return
	}
	fs, err := h.router.Resolve(path)
	if err != nil {
		response.Error(c, err)
		return
	}
	size, err := fs.Size(c.Request.Context(), path)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, SizeResponse{Path: path, Bytes: size})
}

// Fetch handles POST /artifacts.
func (h *RemoteFSController) Fetch(c *gin.Context) {
	var req fetcher.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	res, err := h.fetcher.Fetch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
