package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	version string
	started time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now()}
}

// Register registers the health route directly on the engine, outside
// the versioned API group.
func (h *HealthHandler) Register(engine *gin.Engine) {
	engine.GET("/health", h.Get)
}

// Get handles GET /health
func (h *HealthHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	})
}
