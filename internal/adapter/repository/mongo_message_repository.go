package repository

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
)

type mongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		coll: db.Collection(messagesCollection),
	}
}

func (r *mongoMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.Seq = messageSeq.next()

	if _, err := r.coll.InsertOne(ctx, message); err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *mongoMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	var message entity.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID, "conversationId": conversationID}).Decode(&message)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.NotFound("Message", nil)
		}
		return nil, errors.Internal("Failed to get message", err)
	}
	return &message, nil
}

func (r *mongoMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "seq", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, errors.Internal("Failed to fetch messages", err)
	}
	var messages []*entity.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, errors.Internal("Failed to decode messages", err)
	}
	return messages, nil
}

func (r *mongoMessageRepository) MarkSeen(ctx context.Context, conversationID, userID string) (int, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"conversationId": conversationID, "readBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	if err != nil {
		return 0, errors.Internal("Failed to update read status", err)
	}
	return int(res.ModifiedCount), nil
}

func (r *mongoMessageRepository) CountUnread(ctx context.Context, conversationID, userID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"conversationId": conversationID, "readBy": bson.M{"$ne": userID}})
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}
	return int(n), nil
}
