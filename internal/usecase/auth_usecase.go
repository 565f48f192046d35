package usecase

import (
	"context"
	"strings"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

// TokenVerifier checks a bearer token and returns the user id it was issued to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthUseCase struct {
	userRepo repository.UserRepository
	verifier TokenVerifier
}

func NewAuthUseCase(userRepo repository.UserRepository, verifier TokenVerifier) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		verifier: verifier,
	}
}

// ResolveIdentity turns a bearer token into the caller's identity. Users that
// are authenticated but not yet mirrored into the directory act as members.
func (uc *AuthUseCase) ResolveIdentity(ctx context.Context, token string) (entity.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return entity.Identity{}, errors.Unauthorized("Authentication token is required", nil)
	}

	uid, err := uc.verifier.VerifyToken(ctx, token)
	if err != nil {
		logger.Debug("Token verification failed: %v", err)
		return entity.Identity{}, errors.Unauthorized("Invalid or expired token", err)
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return entity.Identity{UserID: uid, Role: entity.RoleMember}, nil
		}
		logger.Error("ResolveIdentity: failed to load user %s: %v", uid, err)
		return entity.Identity{}, err
	}

	return entity.Identity{UserID: user.ID, Role: user.Role, Name: user.Name}, nil
}
