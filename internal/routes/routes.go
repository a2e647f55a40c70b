package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sav3_backend/internal/handlers"
	"sav3_backend/internal/logger"
	"sav3_backend/internal/middleware"
	"sav3_backend/ws"
)

// RegisterRoutes wires up all HTTP and WebSocket routes.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.Auth.RegisterRoutes(api)
		appHandlers.Notification.RegisterRoutes(api)
		appHandlers.Settings.RegisterRoutes(api)
		appHandlers.Campaign.RegisterRoutes(api)
		appHandlers.Diagnostics.RegisterRoutes(api)
	}

	wsGroup := ginRouter.Group("/ws")
	wsGroup.Use(middleware.AuthMiddleware())
	{
		wsGroup.GET("", wsHandler.ServeWS)
		wsGroup.GET("/errors", appHandlers.Diagnostics.ServeWS)
	}
	logger.Info("WebSocket routes registered", "paths", []string{"/ws", "/ws/errors"})
}
