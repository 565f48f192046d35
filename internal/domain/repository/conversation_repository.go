package repository

import (
	"context"
	"time"

	"tourhub/internal/domain/entity"
)

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListAll(ctx context.Context) ([]*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)

	// FindOrCreateDirect returns the conversation between a and b, creating
	// it when absent. Implementations must serialize creation per pair so
	// concurrent callers observe the same conversation. created reports
	// whether this call inserted it.
	FindOrCreateDirect(ctx context.Context, a, b string) (conversation *entity.Conversation, created bool, err error)

	// SetLastMessage moves the last-message pointer and bumps updatedAt.
	SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error
}
