package repository

import (
	"context"
	"sort"
	"sync"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewMemoryUserRepository(users ...*entity.User) repository.UserRepository {
	r := &memoryUserRepository{users: make(map[string]*entity.User)}
	for _, u := range users {
		copied := *u
		r.users[u.ID] = &copied
	}
	return r
}

func (r *memoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		return errors.BadRequest("User id is required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepository) FindAdmin(ctx context.Context) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var admins []*entity.User
	for _, u := range r.users {
		if u.IsAdmin() {
			admins = append(admins, u)
		}
	}
	if len(admins) == 0 {
		return nil, errors.NotFound("Admin user", nil)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].ID < admins[j].ID })
	copied := *admins[0]
	return &copied, nil
}
