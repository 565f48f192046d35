package middleware

import (
	"github.com/labstack/echo/v4"

	"tourhub/pkg/errors"
	"tourhub/pkg/response"
)

// RequireRole allows the request through only when the authenticated caller
// holds one of roles. It must run after Authenticate.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return response.Error(c, errors.Unauthorized("Authentication required", nil))
			}

			for _, role := range roles {
				if identity.Role == role {
					return next(c)
				}
			}
			return response.Error(c, errors.Forbidden("Insufficient privileges", nil))
		}
	}
}
