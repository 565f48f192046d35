package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"tourhub/internal/domain/entity"
	"tourhub/pkg/errors"
	"tourhub/pkg/response"
)

const contextKeyIdentity = "identity"

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (entity.Identity, error)
}

type AuthMiddleware struct {
	resolver IdentityResolver
}

func NewAuthMiddleware(resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		token, ok := BearerToken(authHeader)
		if !ok {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		identity, err := m.resolver.ResolveIdentity(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		SetIdentity(c, identity)
		return next(c)
	}
}

// Resolve exposes identity resolution to handlers that authenticate outside
// the middleware chain, such as the websocket upgrade.
func (m *AuthMiddleware) Resolve(ctx context.Context, token string) (entity.Identity, error) {
	return m.resolver.ResolveIdentity(ctx, token)
}

func SetIdentity(c echo.Context, identity entity.Identity) {
	c.Set(contextKeyIdentity, identity)
}

// IdentityFrom returns the caller set by Authenticate.
func IdentityFrom(c echo.Context) (entity.Identity, bool) {
	identity, ok := c.Get(contextKeyIdentity).(entity.Identity)
	return identity, ok && identity.UserID != ""
}
