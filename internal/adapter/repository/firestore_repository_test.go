package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourhub/internal/domain/entity"
	"tourhub/pkg/errors"
)

type fakeWriteJob struct {
	err error
}

func (j fakeWriteJob) Results() (*firestore.WriteResult, error) {
	if j.err != nil {
		return nil, j.err
	}
	return &firestore.WriteResult{UpdateTime: time.Now()}, nil
}

func TestAwaitReadStatus(t *testing.T) {
	updated, err := awaitReadStatus("c1", []writeJob{fakeWriteJob{}, fakeWriteJob{}})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	updated, err = awaitReadStatus("c1", []writeJob{
		fakeWriteJob{},
		fakeWriteJob{err: stderrors.New("deadline exceeded")},
		fakeWriteJob{},
	})
	assert.True(t, errors.Is(err, errors.CodeInternal))
	assert.Equal(t, 2, updated)
}

func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), fmt.Sprintf("tourhub-test-%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFirestoreFindOrCreateDirectRace(t *testing.T) {
	client := newEmulatorClient(t)
	assertSingleConversationPerPair(t, NewFirestoreConversationRepository(client))
}

func TestFirestoreMarkSeen(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	conversations := NewFirestoreConversationRepository(client)
	messages := NewFirestoreMessageRepository(client)

	conv, _, err := conversations.FindOrCreateDirect(ctx, "m1", "admin")
	require.NoError(t, err)
	for _, content := range []string{"one", "two"} {
		require.NoError(t, messages.Create(ctx, &entity.Message{
			ConversationID: conv.ID,
			Sender:         "m1",
			Content:        content,
			ReadBy:         []string{"m1"},
			CreatedAt:      time.Now().UTC(),
		}))
	}

	updated, err := messages.MarkSeen(ctx, conv.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	updated, err = messages.MarkSeen(ctx, conv.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	history, err := messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	for _, m := range history {
		assert.ElementsMatch(t, []string{"m1", "admin"}, m.ReadBy)
	}
}
