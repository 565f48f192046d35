package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourhub/internal/domain/entity"
	"tourhub/pkg/errors"
)

func TestMemoryFindOrCreateDirectIsSingletonPerPair(t *testing.T) {
	assertSingleConversationPerPair(t, NewMemoryConversationRepository())
}

func TestMemoryConversationListByParticipant(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	_, _, err := repo.FindOrCreateDirect(ctx, "m1", "admin")
	require.NoError(t, err)
	_, _, err = repo.FindOrCreateDirect(ctx, "m2", "admin")
	require.NoError(t, err)

	mine, err := repo.ListByParticipant(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.ElementsMatch(t, []string{"m1", "admin"}, mine[0].Participants)

	admins, err := repo.ListByParticipant(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestMemorySetLastMessage(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	c, _, err := repo.FindOrCreateDirect(ctx, "m1", "admin")
	require.NoError(t, err)

	at := time.Now().UTC().Add(time.Minute)
	require.NoError(t, repo.SetLastMessage(ctx, c.ID, "msg-1", at))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", got.LastMessageID)
	assert.True(t, got.LastMessageAt.Equal(at))
	assert.False(t, got.UpdatedAt.Before(c.UpdatedAt))

	err = repo.SetLastMessage(ctx, "missing", "msg-1", at)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestMemoryMessagesOrderAndReadState(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	sameInstant := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &entity.Message{
			ConversationID: "c1",
			Sender:         "m1",
			Content:        content,
			ReadBy:         []string{"m1"},
			CreatedAt:      sameInstant,
		}))
	}

	messages, err := repo.ListByConversation(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, "third", messages[2].Content)

	unread, err := repo.CountUnread(ctx, "c1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	updated, err := repo.MarkSeen(ctx, "c1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	updated, err = repo.MarkSeen(ctx, "c1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	unread, err = repo.CountUnread(ctx, "c1", "admin")
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestMemoryMessageCopiesAreIsolated(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	msg := &entity.Message{ConversationID: "c1", Sender: "m1", Content: "hi", ReadBy: []string{"m1"}}
	require.NoError(t, repo.Create(ctx, msg))
	msg.ReadBy = append(msg.ReadBy, "intruder")

	stored, err := repo.GetByID(ctx, "c1", msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, stored.ReadBy)
}

func TestMemoryFindAdmin(t *testing.T) {
	ctx := context.Background()

	empty := NewMemoryUserRepository(&entity.User{ID: "m1", Role: entity.RoleMember})
	_, err := empty.FindAdmin(ctx)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	users := NewMemoryUserRepository(
		&entity.User{ID: "m1", Role: entity.RoleMember},
		&entity.User{ID: "z-admin", Role: entity.RoleAdmin},
		&entity.User{ID: "a-admin", Role: entity.RoleAdmin},
	)
	admin, err := users.FindAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-admin", admin.ID)
}

func TestSequenceIsStrictlyIncreasing(t *testing.T) {
	var s sequence
	prev := s.next()
	for i := 0; i < 1000; i++ {
		n := s.next()
		assert.Greater(t, n, prev)
		prev = n
	}
}
