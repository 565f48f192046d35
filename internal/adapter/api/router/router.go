package router

import (
	"github.com/labstack/echo/v4"

	"tourhub/internal/adapter/api/handler"
	"tourhub/internal/adapter/api/middleware"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
	Admin     *handler.AdminHandler
	DevToken  *handler.DevTokenHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, wsMiddleware ...echo.MiddlewareFunc) {
	SetupHealthRouter(e, h.Health)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, wsMiddleware...)
	SetupAdminRouter(e, h.Admin, authMiddleware)
	SetupDevRouter(e, h.DevToken)
}
