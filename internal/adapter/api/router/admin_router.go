package router

import (
	"github.com/labstack/echo/v4"

	"tourhub/internal/adapter/api/handler"
	"tourhub/internal/adapter/api/middleware"
	"tourhub/internal/domain/entity"
)

func SetupAdminRouter(e *echo.Echo, adminHandler *handler.AdminHandler, authMiddleware *middleware.AuthMiddleware) {
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.RequireRole(entity.RoleAdmin))

	admin.GET("/realtime", adminHandler.RealtimeStats)
}
