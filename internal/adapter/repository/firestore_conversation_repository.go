package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

const (
	conversationsCollection = "conversations"
	pairsCollection         = "conversation_pairs"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

type conversationPair struct {
	ConversationID string    `firestore:"conversationId"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID
	return &conversation, nil
}

func (r *firestoreConversationRepository) ListAll(ctx context.Context) ([]*entity.Conversation, error) {
	docs, err := r.client.Collection(conversationsCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch conversations", err)
	}
	return decodeConversations(docs), nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.client.Collection(conversationsCollection).Where("participants", "array-contains", userID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch conversations", err)
	}
	return decodeConversations(docs), nil
}

func decodeConversations(docs []*firestore.DocumentSnapshot) []*entity.Conversation {
	conversations := make([]*entity.Conversation, 0, len(docs))
	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		conversation.ID = doc.Ref.ID
		conversations = append(conversations, &conversation)
	}
	return conversations
}

// FindOrCreateDirect runs in a transaction over the pair document, so two
// concurrent first contacts cannot both create a conversation: the loser's
// transaction is retried and then reads the winner's pair document.
func (r *firestoreConversationRepository) FindOrCreateDirect(ctx context.Context, a, b string) (*entity.Conversation, bool, error) {
	key := entity.PairKey(a, b)
	pairRef := r.client.Collection(pairsCollection).Doc(key)

	var (
		result  *entity.Conversation
		created bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		pairDoc, err := tx.Get(pairRef)
		if err == nil {
			var pair conversationPair
			if err := pairDoc.DataTo(&pair); err != nil {
				return err
			}
			convDoc, err := tx.Get(r.client.Collection(conversationsCollection).Doc(pair.ConversationID))
			if err != nil {
				return err
			}
			var conversation entity.Conversation
			if err := convDoc.DataTo(&conversation); err != nil {
				return err
			}
			conversation.ID = convDoc.Ref.ID
			result = &conversation
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		now := time.Now().UTC()
		conversation := &entity.Conversation{
			ID:           uuid.New().String(),
			Participants: []string{a, b},
			PairKey:      key,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(pairRef, conversationPair{ConversationID: conversation.ID, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.Create(r.client.Collection(conversationsCollection).Doc(conversation.ID), conversation); err != nil {
			return err
		}
		result = conversation
		created = true
		return nil
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to resolve conversation", err)
	}
	return result, created, nil
}

func (r *firestoreConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	_, err := r.client.Collection(conversationsCollection).Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "lastMessageId", Value: messageID},
		{Path: "lastMessageAt", Value: at},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to update conversation", err)
	}
	return nil
}
