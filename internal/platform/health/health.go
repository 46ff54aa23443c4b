// Package health exposes the liveness endpoint.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler answers liveness probes.
type Handler struct {
	service   string
	startedAt time.Time
}

// NewHandler creates a Handler for the named service.
func NewHandler(service string) *Handler {
	return &Handler{service: service, startedAt: time.Now().UTC()}
}

// RegisterRoutes registers GET /health.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	})
}
