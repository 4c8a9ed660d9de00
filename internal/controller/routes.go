package controller

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the probes at the root and every other endpoint
// under /api/v1.
func RegisterRoutes(r gin.IRouter, health *HealthController, monitors *MonitorController, remote *RemoteFSController) {
	r.GET("/healthz", health.Live)
	r.GET("/readyz", health.Ready)

	api := r.Group("/api/v1")

	m := api.Group("/monitors")
	m.POST("", monitors.Start)
	m.GET("", monitors.List)
	m.GET("/:id", monitors.Get)
	m.GET("/:id/usage", monitors.Latest)
	m.POST("/:id/check", monitors.Check)
	m.DELETE("/:id", monitors.Stop)

	fs := api.Group("/remotefs")
	fs.GET("/exists", remote.Exists)
	fs.GET("/size", remote.Size)

	api.POST("/artifacts", remote.Fetch)
}
