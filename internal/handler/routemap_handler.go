package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/colectivo/service-routemap/internal/application"
	"github.com/colectivo/service-routemap/internal/platform/response"
)

// RouteMapHandler handles HTTP requests for map sessions and render cycles.
type RouteMapHandler struct {
	service *application.RenderService
}

// NewRouteMapHandler creates a new RouteMapHandler.
func NewRouteMapHandler(service *application.RenderService) *RouteMapHandler {
	return &RouteMapHandler{service: service}
}

// RegisterRoutes registers all route map routes.
func (h *RouteMapHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/api/v1/routemap/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.POST("/:id/render", h.Render)
		sessions.GET("/:id/overlay", h.GetOverlay)
		sessions.DELETE("/:id/overlay", h.ClearOverlay)
	}
}

// CreateSession opens a new map session.
func (h *RouteMapHandler) CreateSession(c *gin.Context) {
	result, err := h.service.CreateSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListSessions returns every open session.
func (h *RouteMapHandler) ListSessions(c *gin.Context) {
	result, err := h.service.ListSessions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetSession returns a session's state.
func (h *RouteMapHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteSession closes a session.
func (h *RouteMapHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSession(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Render runs one render cycle with the raw request body as the options payload.
// The body is not validated here: a malformed payload still clears the overlay
// and is reported in the cycle report.
func (h *RouteMapHandler) Render(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.service.Render(c.Request.Context(), id, string(body))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}

// GetOverlay returns the session's overlay as a GeoJSON FeatureCollection.
func (h *RouteMapHandler) GetOverlay(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	fc, err := h.service.Overlay(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, fc)
}

// ClearOverlay removes everything drawn on the session's map.
func (h *RouteMapHandler) ClearOverlay(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.service.ClearOverlay(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}
