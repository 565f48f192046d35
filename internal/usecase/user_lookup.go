package usecase

import (
	"context"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/logger"
)

// userLookup caches user summaries for the duration of one request.
type userLookup struct {
	repo  repository.UserRepository
	cache map[string]*entity.UserSummary
}

func newUserLookup(repo repository.UserRepository) *userLookup {
	return &userLookup{repo: repo, cache: make(map[string]*entity.UserSummary)}
}

// summary returns nil for users that cannot be loaded; display data is best
// effort and never fails the surrounding operation.
func (l *userLookup) summary(ctx context.Context, userID string) *entity.UserSummary {
	if s, ok := l.cache[userID]; ok {
		return s
	}
	user, err := l.repo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("User %s not found for display: %v", userID, err)
		l.cache[userID] = nil
		return nil
	}
	s := user.Summary()
	l.cache[userID] = &s
	return &s
}

func (l *userLookup) messageView(ctx context.Context, message *entity.Message) *entity.MessageView {
	return &entity.MessageView{
		Message:    message,
		SenderInfo: l.summary(ctx, message.Sender),
	}
}
