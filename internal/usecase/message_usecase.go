package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

const MaxMessageLength = 4000

// messageContent is validated after trimming.
type messageContent struct {
	Content string `validate:"required,max=4000"`
}

var contentValidator = validator.New()

func validateContent(content string) error {
	err := contentValidator.Struct(messageContent{Content: content})
	if err == nil {
		return nil
	}

	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 && validationErrs[0].Tag() == "max" {
		return errors.BadRequest("Message content is too long", err)
	}
	return errors.BadRequest("Message content is required", err)
}

// RateLimiter throttles message sends per sender.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

// MessageUseCase is the message ledger: append-only history per
// conversation with participant checks and read tracking.
type MessageUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	userRepo         repository.UserRepository
	rateLimiter      RateLimiter
	now              func() time.Time
}

func NewMessageUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	rateLimiter RateLimiter,
) *MessageUseCase {
	return &MessageUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		rateLimiter:      rateLimiter,
		now:              func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (uc *MessageUseCase) participantConversation(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return conversation, nil
}

// Authorize reports whether userID may act on the conversation.
func (uc *MessageUseCase) Authorize(ctx context.Context, conversationID, userID string) error {
	_, err := uc.participantConversation(ctx, conversationID, userID)
	return err
}

// GetHistory marks every message read for the caller and returns the
// conversation's messages in append order.
func (uc *MessageUseCase) GetHistory(ctx context.Context, conversationID, callerID string) ([]*entity.MessageView, error) {
	if _, err := uc.participantConversation(ctx, conversationID, callerID); err != nil {
		logger.Debug("GetHistory denied for %s on %s: %v", callerID, conversationID, err)
		return nil, err
	}

	if _, err := uc.messageRepo.MarkSeen(ctx, conversationID, callerID); err != nil {
		logger.Error("GetHistory: failed to mark conversation %s read for %s: %v", conversationID, callerID, err)
		return nil, err
	}

	messages, err := uc.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		logger.Error("GetHistory: failed to list messages for conversation %s: %v", conversationID, err)
		return nil, err
	}
	entity.SortChronological(messages)

	users := newUserLookup(uc.userRepo)
	views := make([]*entity.MessageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, users.messageView(ctx, message))
	}
	return views, nil
}

// Append stores a new message and moves the conversation's last-message
// pointer. The two writes are not atomic; a failed pointer update is logged
// and the message is still returned, since history is the source of truth.
func (uc *MessageUseCase) Append(ctx context.Context, conversationID, senderID, content string) (*entity.MessageView, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if err := validateContent(content); err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(senderID) {
		logger.Warn("Append: user %s is not a participant in conversation %s", senderID, conversationID)
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(ctx, senderID); !allowed {
			logger.Info("Append rate limited: user %s must wait %v", senderID, wait)
			return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down.", wait)
		}
	}

	message := &entity.Message{
		ConversationID: conversationID,
		Sender:         senderID,
		Content:        content,
		ReadBy:         []string{senderID},
		CreatedAt:      uc.now(),
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("Append: failed to create message in conversation %s: %v", conversationID, err)
		return nil, err
	}

	if err := uc.conversationRepo.SetLastMessage(ctx, conversationID, message.ID, message.CreatedAt); err != nil {
		logger.Warn("Append: message %s stored but conversation %s pointer not updated: %v", message.ID, conversationID, err)
	}

	return newUserLookup(uc.userRepo).messageView(ctx, message), nil
}

// MarkSeen adds userID to readBy of every message in the conversation and
// returns how many messages changed. Calling it again is a no-op.
func (uc *MessageUseCase) MarkSeen(ctx context.Context, conversationID, userID string) (int, error) {
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	updated, err := uc.messageRepo.MarkSeen(ctx, conversationID, userID)
	if err != nil {
		logger.Error("MarkSeen: failed for user %s in conversation %s: %v", userID, conversationID, err)
		return 0, err
	}
	return updated, nil
}

// UnreadCount returns how many messages in the conversation userID has not read.
func (uc *MessageUseCase) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return uc.messageRepo.CountUnread(ctx, conversationID, userID)
}
