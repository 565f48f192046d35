package router

import (
	"github.com/labstack/echo/v4"

	"tourhub/internal/adapter/api/handler"
)

// SetupDevRouter is a no-op unless devTokenHandler is set, which main only
// does in development with JWT auth.
func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler) {
	if devTokenHandler == nil {
		return
	}
	e.GET("/_dev/token/admin", devTokenHandler.GenerateAdminToken)
	e.GET("/_dev/token/:userId", devTokenHandler.GenerateUserToken)
}
