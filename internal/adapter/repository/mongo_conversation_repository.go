package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

type mongoConversationRepository struct {
	coll *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) repository.ConversationRepository {
	return &mongoConversationRepository{
		coll: db.Collection(conversationsCollection),
	}
}

func (r *mongoConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	var conversation entity.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}
	return &conversation, nil
}

func (r *mongoConversationRepository) ListAll(ctx context.Context) ([]*entity.Conversation, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return r.find(ctx, bson.M{"participants": userID})
}

func (r *mongoConversationRepository) find(ctx context.Context, filter bson.M) ([]*entity.Conversation, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Internal("Failed to fetch conversations", err)
	}
	var conversations []*entity.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, errors.Internal("Failed to decode conversations", err)
	}
	return conversations, nil
}

// FindOrCreateDirect upserts on pairKey, which carries a unique index.
func (r *mongoConversationRepository) FindOrCreateDirect(ctx context.Context, a, b string) (*entity.Conversation, bool, error) {
	return findOrCreatePair(ctx, r.coll, a, b)
}

type pairCollection interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult
	FindOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
}

// findOrCreatePair: two racing upserts can both miss and one of them then
// fails with a duplicate key error; that caller re-reads the winner's document.
func findOrCreatePair(ctx context.Context, coll pairCollection, a, b string) (*entity.Conversation, bool, error) {
	key := entity.PairKey(a, b)
	now := time.Now().UTC()
	id := uuid.New().String()

	update := bson.M{"$setOnInsert": bson.M{
		"_id":          id,
		"participants": []string{a, b},
		"createdAt":    now,
		"updatedAt":    now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conversation entity.Conversation
	err := coll.FindOneAndUpdate(ctx, bson.M{"pairKey": key}, update, opts).Decode(&conversation)
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, errors.Internal("Failed to resolve conversation", err)
		}
		if err := coll.FindOne(ctx, bson.M{"pairKey": key}).Decode(&conversation); err != nil {
			return nil, false, errors.Internal("Failed to resolve conversation", err)
		}
	}
	return &conversation, conversation.ID == id, nil
}

func (r *mongoConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{"$set": bson.M{
		"lastMessageId": messageID,
		"lastMessageAt": at,
		"updatedAt":     time.Now().UTC(),
	}})
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}
	if res.MatchedCount == 0 {
		return errors.NotFound("Conversation", nil)
	}
	return nil
}
