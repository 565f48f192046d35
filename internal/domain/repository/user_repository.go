package repository

import (
	"context"

	"tourhub/internal/domain/entity"
)

// UserRepository is a read-mostly view of the user directory. Users are
// provisioned by the account service; Create exists for seeding.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// FindAdmin returns the platform admin or a NOT_FOUND AppError.
	FindAdmin(ctx context.Context) (*entity.User, error)
}
