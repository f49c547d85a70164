package endpoints

import (
	"errors"
	"net/http"
	"orderhub"
	"orderhub/internal/api/handler/middleware"
	"orderhub/internal/api/handler/request"
	"orderhub/internal/api/handler/response"
	"orderhub/internal/realtime"
	"orderhub/pkg"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type eventHandler struct {
	hub    *realtime.Manager
	logger zerolog.Logger
	config orderhub.AppConfig
}

func newEventHandler(hub *realtime.Manager, cfg orderhub.AppConfig) *eventHandler {
	return &eventHandler{
		hub:    hub,
		logger: orderhub.Logger,
		config: cfg,
	}
}

// EventHandler exposes the hub's broadcast operations to backend services.
func EventHandler(router gin.IRouter, hub *realtime.Manager, cfg orderhub.AppConfig) {
	h := newEventHandler(hub, cfg)

	events := router.Group("/api/v1/events")
	events.Use(middleware.AuthMiddleware(h.config))
	events.Use(middleware.RequireRole(middleware.RoleService, middleware.RoleAdmin))
	{
		events.GET("", h.listKinds)
		events.POST("/:kind", h.publish)
	}
}

func (slf *eventHandler) listKinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kinds": realtime.EventKinds})
}

func (slf *eventHandler) publish(c *gin.Context) {
	kind := c.Param("kind")
	if !slices.Contains(realtime.EventKinds, kind) {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Unknown event kind: " + kind})
		return
	}

	var dto request.PublishEventDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		slf.logger.Error().Err(err).Str("kind", kind).Msg("Error parsing and validating publish DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	delivered, err := slf.hub.Dispatch(dto.ToEvent(kind))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, realtime.ErrInvalidEvent) || errors.Is(err, realtime.ErrUnknownEventKind) {
			status = http.StatusBadRequest
		}
		slf.logger.Warn().Err(err).Str("kind", kind).Msg("Event rejected")
		c.JSON(status, response.APIError{Message: err.Error()})
		return
	}

	slf.logger.Debug().Str("kind", kind).Int("delivered", delivered).Msg("Event published")
	c.JSON(http.StatusAccepted, response.PublishResponse{Kind: kind, Delivered: delivered})
}
