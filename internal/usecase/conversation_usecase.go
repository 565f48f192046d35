package usecase

import (
	"context"

	"tourhub/internal/domain/entity"
	"tourhub/internal/domain/repository"
	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

// ConversationUseCase is the conversation directory. It guarantees every
// non-admin user has exactly one support conversation with the admin.
type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	userRepo         repository.UserRepository
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
	}
}

// EnsureSupportConversation finds or creates the conversation between the
// caller and the platform admin.
func (uc *ConversationUseCase) EnsureSupportConversation(ctx context.Context, callerID string) (*entity.Conversation, error) {
	admin, err := uc.userRepo.FindAdmin(ctx)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			logger.Error("No admin user is provisioned; support conversations are unavailable")
			return nil, errors.Configuration("Support chat is not configured", err)
		}
		return nil, err
	}
	if admin.ID == callerID {
		return nil, errors.BadRequest("The admin has no support conversation with itself", nil)
	}

	conversation, created, err := uc.conversationRepo.FindOrCreateDirect(ctx, callerID, admin.ID)
	if err != nil {
		logger.Error("EnsureSupportConversation: failed for user %s: %v", callerID, err)
		return nil, err
	}
	if created {
		logger.Info("Created support conversation %s for user %s", conversation.ID, callerID)
	}
	return conversation, nil
}

// ListConversations returns the conversations visible to the caller, newest
// activity first. Admins see every conversation.
func (uc *ConversationUseCase) ListConversations(ctx context.Context, caller entity.Identity) ([]*entity.ConversationView, error) {
	var (
		conversations []*entity.Conversation
		err           error
	)
	if caller.IsAdmin() {
		conversations, err = uc.conversationRepo.ListAll(ctx)
	} else {
		if _, err := uc.EnsureSupportConversation(ctx, caller.UserID); err != nil {
			return nil, err
		}
		conversations, err = uc.conversationRepo.ListByParticipant(ctx, caller.UserID)
	}
	if err != nil {
		logger.Error("ListConversations: failed for user %s: %v", caller.UserID, err)
		return nil, err
	}

	entity.SortByActivity(conversations)

	users := newUserLookup(uc.userRepo)
	views := make([]*entity.ConversationView, 0, len(conversations))
	for _, conversation := range conversations {
		views = append(views, uc.view(ctx, users, conversation, caller.UserID))
	}
	return views, nil
}

// GetConversation returns one conversation. Admins may read any summary,
// everyone else only conversations they take part in.
func (uc *ConversationUseCase) GetConversation(ctx context.Context, caller entity.Identity, conversationID string) (*entity.ConversationView, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !conversation.HasParticipant(caller.UserID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return uc.view(ctx, newUserLookup(uc.userRepo), conversation, caller.UserID), nil
}

func (uc *ConversationUseCase) view(ctx context.Context, users *userLookup, conversation *entity.Conversation, viewerID string) *entity.ConversationView {
	view := &entity.ConversationView{
		Conversation:    conversation,
		ParticipantInfo: make([]entity.UserSummary, 0, len(conversation.Participants)),
	}

	for _, participantID := range conversation.Participants {
		if s := users.summary(ctx, participantID); s != nil {
			view.ParticipantInfo = append(view.ParticipantInfo, *s)
		}
	}

	if conversation.LastMessageID != "" {
		last, err := uc.messageRepo.GetByID(ctx, conversation.ID, conversation.LastMessageID)
		if err == nil {
			view.LastMessage = users.messageView(ctx, last)
		} else {
			logger.Warn("Last message %s of conversation %s unavailable: %v", conversation.LastMessageID, conversation.ID, err)
		}
	}

	unread, err := uc.messageRepo.CountUnread(ctx, conversation.ID, viewerID)
	if err != nil {
		logger.Warn("Unread count for conversation %s unavailable: %v", conversation.ID, err)
	}
	view.UnreadCount = unread
	return view
}
