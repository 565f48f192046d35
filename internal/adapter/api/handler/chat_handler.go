package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tourhub/internal/adapter/api/middleware"
	"tourhub/internal/domain/entity"
	ws "tourhub/internal/infrastructure/websocket"
	"tourhub/internal/usecase"
	"tourhub/pkg/errors"
	"tourhub/pkg/response"
)

// Broadcaster pushes events to connections joined to a conversation.
type Broadcaster interface {
	BroadcastToRoom(conversationID, eventType string, data interface{}) int
}

type ChatHandler struct {
	conversationUseCase *usecase.ConversationUseCase
	messageUseCase      *usecase.MessageUseCase
	broadcaster         Broadcaster
}

func NewChatHandler(conversationUseCase *usecase.ConversationUseCase, messageUseCase *usecase.MessageUseCase, broadcaster Broadcaster) *ChatHandler {
	return &ChatHandler{
		conversationUseCase: conversationUseCase,
		messageUseCase:      messageUseCase,
		broadcaster:         broadcaster,
	}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func caller(c echo.Context) (entity.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return entity.Identity{}, errors.Unauthorized("Authentication required", nil)
	}
	return identity, nil
}

func conversationID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.BadRequest("Invalid conversation id", err)
	}
	return id, nil
}

// ListConversations returns the caller's conversations, creating the support
// conversation on first contact.
func (h *ChatHandler) ListConversations(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return response.Error(c, err)
	}

	conversations, err := h.conversationUseCase.ListConversations(c.Request().Context(), identity)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

func (h *ChatHandler) GetConversation(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return response.Error(c, err)
	}
	id, err := conversationID(c)
	if err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.conversationUseCase.GetConversation(c.Request().Context(), identity, id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

// GetMessages returns the history and marks it read for the caller.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return response.Error(c, err)
	}
	id, err := conversationID(c)
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.messageUseCase.GetHistory(c.Request().Context(), id, identity.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return response.Error(c, err)
	}
	id, err := conversationID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.Append(c.Request().Context(), id, identity.UserID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastToRoom(id, ws.EventReceiveMessage, message)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkAsRead(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return response.Error(c, err)
	}
	id, err := conversationID(c)
	if err != nil {
		return response.Error(c, err)
	}

	updated, err := h.messageUseCase.MarkSeen(c.Request().Context(), id, identity.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastToRoom(id, ws.EventUpdateSeenStatus, ws.SeenData{
			ConversationID: id,
			UserID:         identity.UserID,
		})
	}

	return response.Success(c, map[string]int{"updated": updated})
}
