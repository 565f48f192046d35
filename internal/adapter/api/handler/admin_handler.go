package handler

import (
	"github.com/labstack/echo/v4"

	ws "tourhub/internal/infrastructure/websocket"
	"tourhub/pkg/response"
)

type AdminHandler struct {
	wsManager *ws.Manager
}

func NewAdminHandler(wsManager *ws.Manager) *AdminHandler {
	return &AdminHandler{
		wsManager: wsManager,
	}
}

// RealtimeStats reports how many realtime connections are open.
func (h *AdminHandler) RealtimeStats(c echo.Context) error {
	return response.Success(c, map[string]int{
		"connections": h.wsManager.ClientCount(),
	})
}
