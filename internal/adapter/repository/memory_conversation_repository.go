package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

type memoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	pairs         map[string]string
}

func NewMemoryConversationRepository() repository.ConversationRepository {
	return &memoryConversationRepository{
		conversations: make(map[string]*entity.Conversation),
		pairs:         make(map[string]string),
	}
}

func copyConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	return &out
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return copyConversation(c), nil
}

func (r *memoryConversationRepository) ListAll(ctx context.Context) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		out = append(out, copyConversation(c))
	}
	return out, nil
}

func (r *memoryConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, copyConversation(c))
		}
	}
	return out, nil
}

func (r *memoryConversationRepository) FindOrCreateDirect(ctx context.Context, a, b string) (*entity.Conversation, bool, error) {
	key := entity.PairKey(a, b)

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.pairs[key]; ok {
		return copyConversation(r.conversations[id]), false, nil
	}

	now := time.Now().UTC()
	c := &entity.Conversation{
		ID:           uuid.New().String(),
		Participants: []string{a, b},
		PairKey:      key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.conversations[c.ID] = c
	r.pairs[key] = c.ID
	return copyConversation(c), true, nil
}

func (r *memoryConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	c.LastMessageID = messageID
	c.LastMessageAt = at
	c.UpdatedAt = time.Now().UTC()
	return nil
}
