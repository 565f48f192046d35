package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"tourhub/internal/domain/entity"
	"tourhub/pkg/errors"
	"tourhub/pkg/logger"
)

const defaultOperationTimeout = 10 * time.Second

// ChatService is the part of the message ledger the hub needs.
type ChatService interface {
	Append(ctx context.Context, conversationID, senderID, content string) (*entity.MessageView, error)
	MarkSeen(ctx context.Context, conversationID, userID string) (int, error)
	Authorize(ctx context.Context, conversationID, userID string) error
}

type Options struct {
	// AuthorizeJoins restricts join_conversation to participants.
	AuthorizeJoins   bool
	OperationTimeout time.Duration
}

// Manager tracks connections and conversation rooms and dispatches client
// events to the ledger.
type Manager struct {
	chat ChatService
	opts Options

	mu          sync.RWMutex
	clients     map[string]*Client
	rooms       map[string]map[string]*Client // conversationID -> clientID -> client
	clientRooms map[string]map[string]struct{}
	closed      bool

	startOnce sync.Once
}

func NewManager(chat ChatService, opts Options) *Manager {
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = defaultOperationTimeout
	}
	return &Manager{
		chat:        chat,
		opts:        opts,
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		clientRooms: make(map[string]map[string]struct{}),
	}
}

// Start ties the manager to ctx: when it is cancelled every connection is
// closed. Calling Start again has no effect.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go func() {
			<-ctx.Done()
			m.Shutdown()
		}()
	})
}

// Register tracks a new connection. It fails once the manager is shut down.
func (m *Manager) Register(c *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("SHUTTING_DOWN", "Realtime channel is shutting down", http.StatusServiceUnavailable, nil)
	}
	m.clients[c.ID] = c
	m.clientRooms[c.ID] = make(map[string]struct{})
	logger.Info("WebSocket: client %s registered for user %s", c.ID, c.UserID)
	return nil
}

// Unregister drops the connection and all its room memberships.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	removed := m.removeLocked(c)
	m.mu.Unlock()

	if removed {
		logger.Info("WebSocket: client %s unregistered for user %s", c.ID, c.UserID)
	}
}

func (m *Manager) removeLocked(c *Client) bool {
	if _, ok := m.clients[c.ID]; !ok {
		return false
	}
	for conversationID := range m.clientRooms[c.ID] {
		if room := m.rooms[conversationID]; room != nil {
			delete(room, c.ID)
			if len(room) == 0 {
				delete(m.rooms, conversationID)
			}
		}
	}
	delete(m.clientRooms, c.ID)
	delete(m.clients, c.ID)
	c.close()
	return true
}

// Join adds the connection to a conversation room. Joining twice is a no-op.
func (m *Manager) Join(conversationID string, c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c.ID]; !ok {
		return false
	}
	room := m.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Client)
		m.rooms[conversationID] = room
	}
	room[c.ID] = c
	m.clientRooms[c.ID][conversationID] = struct{}{}
	return true
}

// RoomSize returns how many connections are joined to the conversation.
func (m *Manager) RoomSize(conversationID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[conversationID])
}

// ClientCount returns the number of open connections.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// BroadcastToRoom sends an event to every connection joined to the
// conversation and returns how many received it. Slow connections are
// dropped rather than waited on.
func (m *Manager) BroadcastToRoom(conversationID, eventType string, data interface{}) int {
	payload, err := encode(eventType, data)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s for conversation %s: %v", eventType, conversationID, err)
		return 0
	}

	var slow []*Client
	delivered := 0

	m.mu.RLock()
	for _, c := range m.rooms[conversationID] {
		if c.enqueue(payload) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("WebSocket: client %s send buffer full, closing connection", c.ID)
		m.Unregister(c)
	}
	return delivered
}

// Shutdown closes every connection and refuses new ones.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for _, c := range m.clients {
		m.removeLocked(c)
	}
	logger.Info("WebSocket: manager shut down")
}

func (m *Manager) sendToClient(c *Client, eventType string, data interface{}) {
	payload, err := encode(eventType, data)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s for client %s: %v", eventType, c.ID, err)
		return
	}
	if !c.enqueue(payload) {
		logger.Warn("WebSocket: client %s send channel full, closing connection", c.ID)
		m.Unregister(c)
	}
}

func encode(eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
