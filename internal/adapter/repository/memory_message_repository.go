package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

type memoryMessageRepository struct {
	mu             sync.RWMutex
	seq            int64
	byConversation map[string][]*entity.Message
}

func NewMemoryMessageRepository() repository.MessageRepository {
	return &memoryMessageRepository{
		byConversation: make(map[string][]*entity.Message),
	}
}

func copyMessage(m *entity.Message) *entity.Message {
	out := *m
	out.ReadBy = append([]string(nil), m.ReadBy...)
	return &out
}

func (r *memoryMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	r.seq++
	message.Seq = r.seq

	r.byConversation[message.ConversationID] = append(r.byConversation[message.ConversationID], copyMessage(message))
	return nil
}

func (r *memoryMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.byConversation[conversationID] {
		if m.ID == messageID {
			return copyMessage(m), nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *memoryMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byConversation[conversationID]
	out := make([]*entity.Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, copyMessage(m))
	}
	entity.SortChronological(out)
	return out, nil
}

func (r *memoryMessageRepository) MarkSeen(ctx context.Context, conversationID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for _, m := range r.byConversation[conversationID] {
		if !m.IsReadBy(userID) {
			m.ReadBy = append(m.ReadBy, userID)
			updated++
		}
	}
	return updated, nil
}

func (r *memoryMessageRepository) CountUnread(ctx context.Context, conversationID, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unread := 0
	for _, m := range r.byConversation[conversationID] {
		if !m.IsReadBy(userID) {
			unread++
		}
	}
	return unread, nil
}
