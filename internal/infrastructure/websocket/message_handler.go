package websocket

import (
	"context"
	"encoding/json"
	"strings"

	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

const (
	EventJoinConversation = "join_conversation"
	EventSendMessage      = "send_message"
	EventReceiveMessage   = "receive_message"
	EventMessagesSeen     = "messages_seen"
	EventUpdateSeenStatus = "update_seen_status"
	EventError            = "error"
	EventPing             = "ping"
	EventPong             = "pong"
)

// WSMessage is the frame exchanged in both directions.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type SendMessageData struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Content        string `json:"content"`
}

type SeenData struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// HandleClientMessage processes one frame from a client. Store calls run
// under their own timeout so a client that disconnects mid-operation does not
// cancel the write.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("WebSocket: malformed frame from client %s: %v", client.ID, err)
		m.sendError(client, "Invalid message format")
		return
	}

	switch msg.Type {
	case EventPing:
		m.sendToClient(client, EventPong, map[string]string{"status": "alive"})
	case EventJoinConversation:
		m.handleJoin(client, msg.Data)
	case EventSendMessage:
		m.handleSendMessage(client, msg.Data)
	case EventMessagesSeen:
		m.handleMessagesSeen(client, msg.Data)
	default:
		logger.Debug("WebSocket: unknown event %q from client %s", msg.Type, client.ID)
		m.sendError(client, "Unknown message type")
	}
}

func (m *Manager) operationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opts.OperationTimeout)
}

// conversationIDFrom accepts the id as a bare string or as
// {"conversationId": "..."}.
func conversationIDFrom(data json.RawMessage) string {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var obj struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return strings.TrimSpace(obj.ConversationID)
	}
	return ""
}

func (m *Manager) handleJoin(client *Client, data json.RawMessage) {
	conversationID := conversationIDFrom(data)
	if conversationID == "" {
		m.sendError(client, "Missing conversation id")
		return
	}

	if m.opts.AuthorizeJoins {
		ctx, cancel := m.operationContext()
		err := m.chat.Authorize(ctx, conversationID, client.UserID)
		cancel()
		if err != nil {
			logger.Info("WebSocket: user %s may not join conversation %s: %v", client.UserID, conversationID, err)
			m.sendError(client, errors.Message(err))
			return
		}
	}

	if m.Join(conversationID, client) {
		logger.Debug("WebSocket: client %s joined conversation %s", client.ID, conversationID)
	}
}

func (m *Manager) handleSendMessage(client *Client, data json.RawMessage) {
	var payload SendMessageData
	if err := json.Unmarshal(data, &payload); err != nil {
		m.sendError(client, "Invalid send message format")
		return
	}
	if payload.ConversationID == "" {
		m.sendError(client, "Missing conversation id")
		return
	}
	if payload.SenderID != "" && payload.SenderID != client.UserID {
		m.sendError(client, "Sender does not match the authenticated user")
		return
	}

	ctx, cancel := m.operationContext()
	defer cancel()

	message, err := m.chat.Append(ctx, payload.ConversationID, client.UserID, payload.Content)
	if err != nil {
		m.sendError(client, errors.Message(err))
		return
	}

	delivered := m.BroadcastToRoom(payload.ConversationID, EventReceiveMessage, message)
	logger.Debug("WebSocket: message %s in conversation %s delivered to %d connections", message.ID, payload.ConversationID, delivered)
}

func (m *Manager) handleMessagesSeen(client *Client, data json.RawMessage) {
	var payload SeenData
	if err := json.Unmarshal(data, &payload); err != nil {
		m.sendError(client, "Invalid messages seen format")
		return
	}
	if payload.ConversationID == "" {
		m.sendError(client, "Missing conversation id")
		return
	}
	if payload.UserID != "" && payload.UserID != client.UserID {
		m.sendError(client, "User does not match the authenticated user")
		return
	}

	ctx, cancel := m.operationContext()
	defer cancel()

	if _, err := m.chat.MarkSeen(ctx, payload.ConversationID, client.UserID); err != nil {
		m.sendError(client, errors.Message(err))
		return
	}

	m.BroadcastToRoom(payload.ConversationID, EventUpdateSeenStatus, SeenData{
		ConversationID: payload.ConversationID,
		UserID:         client.UserID,
	})
}

func (m *Manager) sendError(client *Client, message string) {
	m.sendToClient(client, EventError, message)
}
