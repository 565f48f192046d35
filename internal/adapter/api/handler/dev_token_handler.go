package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"tourhub/internal/domain/repository"
	"tourhub/internal/infrastructure/token"
	"tourhub/pkg/errors"
	"tourhub/pkg/response"
)

const devTokenTTL = 24 * time.Hour

// DevTokenHandler mints tokens for local testing. It is only routed in
// development with JWT auth.
type DevTokenHandler struct {
	issuer   *token.JWTVerifier
	userRepo repository.UserRepository
}

func NewDevTokenHandler(issuer *token.JWTVerifier, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		issuer:   issuer,
		userRepo: userRepo,
	}
}

// GenerateUserToken signs a token for the user in the path. Unknown users
// get a token too and act as members.
func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return response.Error(c, errors.BadRequest("userId is required", nil))
	}
	return h.issue(c, userID)
}

func (h *DevTokenHandler) GenerateAdminToken(c echo.Context) error {
	admin, err := h.userRepo.FindAdmin(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return h.issue(c, admin.ID)
}

func (h *DevTokenHandler) issue(c echo.Context, userID string) error {
	signed, err := h.issuer.Issue(userID, devTokenTTL)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to sign token", err))
	}
	return response.Success(c, map[string]interface{}{
		"token":     signed,
		"userId":    userID,
		"expiresAt": time.Now().Add(devTokenTTL).UTC().Format(time.RFC3339),
	})
}
