package repository

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &postgresUserRepository{pool: pool}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *entity.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, role, name, email, avatar) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, name = EXCLUDED.name,
			email = EXCLUDED.email, avatar = EXCLUDED.avatar`,
		user.ID, user.Role, user.Name, user.Email, user.Avatar,
	)
	if err != nil {
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.one(ctx, `SELECT id, role, name, email, avatar FROM users WHERE id = $1`, "User", id)
}

func (r *postgresUserRepository) FindAdmin(ctx context.Context) (*entity.User, error) {
	return r.one(ctx, `SELECT id, role, name, email, avatar FROM users WHERE role = $1 ORDER BY id LIMIT 1`, "Admin user", entity.RoleAdmin)
}

func (r *postgresUserRepository) one(ctx context.Context, query, resource string, args ...any) (*entity.User, error) {
	var u entity.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Role, &u.Name, &u.Email, &u.Avatar)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound(resource, nil)
		}
		return nil, errors.Internal("Failed to get user", err)
	}
	return &u, nil
}
