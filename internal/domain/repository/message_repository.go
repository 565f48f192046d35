package repository

import (
	"context"

	"tourhub/internal/domain/entity"
)

type MessageRepository interface {
	// Create assigns ID and Seq when empty and stores the message.
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)

	// ListByConversation returns messages ordered by createdAt then seq.
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)

	// MarkSeen adds userID to readBy of every message in the conversation
	// that lacks it and returns how many messages changed.
	MarkSeen(ctx context.Context, conversationID, userID string) (int, error)
	CountUnread(ctx context.Context, conversationID, userID string) (int, error)
}
