package endpoints

import (
	"net/http"
	"orderhub"
	"orderhub/internal/api/handler/middleware"
	"orderhub/internal/api/handler/response"
	"orderhub/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type websocketHandler struct {
	hub    *realtime.Manager
	logger zerolog.Logger
	config orderhub.AppConfig
}

func newWebSocketHandler(hub *realtime.Manager, cfg orderhub.AppConfig) *websocketHandler {
	return &websocketHandler{
		hub:    hub,
		logger: orderhub.Logger,
		config: cfg,
	}
}

// WebSocketHandler mounts the hub's upgrade route and its monitoring routes.
// The upgrade itself is unauthenticated; clients identify with subscribe.
func WebSocketHandler(router gin.IRouter, hub *realtime.Manager, cfg orderhub.AppConfig) {
	h := newWebSocketHandler(hub, cfg)

	router.GET(hub.Config().Path, gin.WrapH(hub))
	router.GET("/health", h.health)

	wsRoutes := router.Group("/api/v1/ws")
	wsRoutes.GET("/stats", h.getStats)

	admin := wsRoutes.Group("")
	admin.Use(middleware.AuthMiddleware(h.config))
	admin.Use(middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/connections", h.getConnections)
	}
}

func (slf *websocketHandler) health(c *gin.Context) {
	if !slf.hub.Accepting() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": slf.hub.ConnectionCount(),
	})
}

func (slf *websocketHandler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, slf.hub.Stats())
}

func (slf *websocketHandler) getConnections(c *gin.Context) {
	conns := slf.hub.Connections()
	c.JSON(http.StatusOK, response.ConnectionsResponse{
		Total:       len(conns),
		Connections: conns,
	})
}
