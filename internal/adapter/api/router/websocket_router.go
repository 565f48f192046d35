package router

import (
	"github.com/labstack/echo/v4"

	"tourhub/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the realtime endpoint. Authentication
// happens inside the handler because the token may arrive in the query.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/ws", wsHandler.HandleWebSocket, mw...)
}
