package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

const messagesCollection = "messages"

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection).Doc(conversationID).Collection(messagesCollection)
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.Seq = messageSeq.next()

	_, err := r.messages(message.ConversationID).Doc(message.ID).Create(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.messages(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	iter := r.messages(conversationID).
		OrderBy("createdAt", firestore.Asc).
		OrderBy("seq", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}
	return messages, nil
}

func (r *firestoreMessageRepository) MarkSeen(ctx context.Context, conversationID, userID string) (int, error) {
	docs, err := r.messages(conversationID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to fetch messages", err)
	}

	var pending []*firestore.DocumentRef
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Malformed message %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
			return 0, errors.Internal("Failed to parse message data", err)
		}
		if !message.IsReadBy(userID) {
			pending = append(pending, doc.Ref)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	// ArrayUnion keeps the write an add-to-set even if another reader
	// updates the same message concurrently.
	bw := r.client.BulkWriter(ctx)
	jobs := make([]writeJob, 0, len(pending))
	for _, ref := range pending {
		job, err := bw.Update(ref, []firestore.Update{{Path: "readBy", Value: firestore.ArrayUnion(userID)}})
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to queue read status update", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	return awaitReadStatus(conversationID, jobs)
}

type writeJob interface {
	Results() (*firestore.WriteResult, error)
}

// awaitReadStatus waits for every queued update. Any failed write fails the
// whole call so callers never see success with the reader missing from readBy.
func awaitReadStatus(conversationID string, jobs []writeJob) (int, error) {
	updated := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			logger.Error("Read status update failed in conversation %s: %v", conversationID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated++
	}
	if firstErr != nil {
		return updated, errors.Internal("Failed to update read status", firstErr)
	}
	return updated, nil
}

func (r *firestoreMessageRepository) CountUnread(ctx context.Context, conversationID, userID string) (int, error) {
	docs, err := r.messages(conversationID).Select("readBy").Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to fetch messages", err)
	}

	unread := 0
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue
		}
		if !message.IsReadBy(userID) {
			unread++
		}
	}
	return unread, nil
}
