package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourhub/internal/adapter/api/handler"
	"tourhub/internal/adapter/api/middleware"
	"tourhub/internal/adapter/api/router"
	"tourhub/internal/adapter/repository"
	"tourhub/internal/domain/entity"
	domainrepo "tourhub/internal/domain/repository"
	ws "tourhub/internal/infrastructure/websocket"
	"tourhub/internal/usecase"
	"tourhub/pkg/response"
)

const (
	adminID    = "admin-1"
	memberID   = "member-1"
	outsiderID = "member-2"
)

// tokenIsUID treats the bearer token as the user id; "bad" is rejected.
type tokenIsUID struct{}

func (tokenIsUID) VerifyToken(_ context.Context, token string) (string, error) {
	if token == "bad" {
		return "", fmt.Errorf("invalid token")
	}
	return token, nil
}

type broadcast struct {
	conversationID string
	eventType      string
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (r *recordingBroadcaster) BroadcastToRoom(conversationID, eventType string, _ interface{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, broadcast{conversationID, eventType})
	return 1
}

type testServer struct {
	e             *echo.Echo
	conversations domainrepo.ConversationRepository
	broadcaster   *recordingBroadcaster
	manager       *ws.Manager
}

func newTestServer(t *testing.T, users ...*entity.User) *testServer {
	t.Helper()
	if users == nil {
		users = []*entity.User{
			{ID: adminID, Role: entity.RoleAdmin, Name: "Support"},
			{ID: memberID, Role: entity.RoleMember, Name: "Mia"},
			{ID: outsiderID, Role: entity.RoleMember, Name: "Olli"},
		}
	}
	userRepo := repository.NewMemoryUserRepository(users...)
	conversationRepo := repository.NewMemoryConversationRepository()
	messageRepo := repository.NewMemoryMessageRepository()

	conversationUseCase := usecase.NewConversationUseCase(conversationRepo, messageRepo, userRepo)
	messageUseCase := usecase.NewMessageUseCase(conversationRepo, messageRepo, userRepo, nil)
	authMiddleware := middleware.NewAuthMiddleware(usecase.NewAuthUseCase(userRepo, tokenIsUID{}))

	manager := ws.NewManager(messageUseCase, ws.Options{AuthorizeJoins: true})
	broadcaster := &recordingBroadcaster{}

	e := echo.New()
	router.Setup(e, router.Handlers{
		Chat:      handler.NewChatHandler(conversationUseCase, messageUseCase, broadcaster),
		WebSocket: handler.NewWebSocketHandler(manager, authMiddleware, []string{"*"}),
		Health:    handler.NewHealthHandler(map[string]handler.ReadinessCheck{"store": func(context.Context) error { return nil }}),
		Admin:     handler.NewAdminHandler(manager),
	}, authMiddleware)

	return &testServer{e: e, conversations: conversationRepo, broadcaster: broadcaster, manager: manager}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp response.Response
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func decodeData(t *testing.T, resp response.Response, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func (s *testServer) supportConversationID(t *testing.T) string {
	t.Helper()
	rec, resp := s.do(t, http.MethodGet, "/v1/conversations", memberID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []entity.ConversationView
	decodeData(t, resp, &views)
	require.Len(t, views, 1)
	return views[0].ID
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec, _ = s.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}

func TestReadinessFailure(t *testing.T) {
	h := handler.NewHealthHandler(map[string]handler.ReadinessCheck{
		"store": func(context.Context) error { return fmt.Errorf("down") },
	})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	if assert.NoError(t, h.CheckReady(c)) {
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "unavailable")
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "rejected token", header: "Bearer bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestListConversationsWithoutAdmin(t *testing.T) {
	s := newTestServer(t, &entity.User{ID: memberID, Role: entity.RoleMember})

	rec, resp := s.do(t, http.MethodGet, "/v1/conversations", memberID, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFIGURATION_ERROR", resp.Error.Code)
}

func TestConversationEndpoints(t *testing.T) {
	s := newTestServer(t)
	convID := s.supportConversationID(t)

	rec, _ := s.do(t, http.MethodGet, "/v1/conversations/"+convID, memberID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/v1/conversations/"+convID, outsiderID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/v1/conversations/not-a-uuid", memberID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/v1/conversations/"+uuid.NewString(), memberID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendAndReadMessages(t *testing.T) {
	s := newTestServer(t)
	convID := s.supportConversationID(t)
	path := "/v1/conversations/" + convID + "/messages"

	rec, resp := s.do(t, http.MethodPost, path, memberID, `{"content":"When does the tour start?"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sent entity.MessageView
	decodeData(t, resp, &sent)
	assert.Equal(t, []string{memberID}, sent.ReadBy)
	require.NotNil(t, sent.SenderInfo)
	assert.Equal(t, "Mia", sent.SenderInfo.Name)

	rec, resp = s.do(t, http.MethodGet, path, adminID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []entity.MessageView
	decodeData(t, resp, &history)
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)
	assert.ElementsMatch(t, []string{memberID, adminID}, history[0].ReadBy)

	rec, resp = s.do(t, http.MethodPut, "/v1/conversations/"+convID+"/read", adminID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var read map[string]int
	decodeData(t, resp, &read)
	assert.Equal(t, 0, read["updated"])

	assert.Equal(t, []broadcast{
		{convID, ws.EventReceiveMessage},
		{convID, ws.EventUpdateSeenStatus},
	}, s.broadcaster.events)
}

func TestSendMessageErrors(t *testing.T) {
	s := newTestServer(t)
	convID := s.supportConversationID(t)
	path := "/v1/conversations/" + convID + "/messages"

	tests := []struct {
		name   string
		path   string
		token  string
		body   string
		status int
	}{
		{name: "missing content", path: path, token: memberID, body: `{}`, status: http.StatusBadRequest},
		{name: "blank content", path: path, token: memberID, body: `{"content":"   "}`, status: http.StatusBadRequest},
		{name: "malformed json", path: path, token: memberID, body: `{"content":`, status: http.StatusBadRequest},
		{name: "invalid id", path: "/v1/conversations/123/messages", token: memberID, body: `{"content":"hi"}`, status: http.StatusBadRequest},
		{name: "unknown conversation", path: "/v1/conversations/" + uuid.NewString() + "/messages", token: memberID, body: `{"content":"hi"}`, status: http.StatusNotFound},
		{name: "not a participant", path: path, token: outsiderID, body: `{"content":"hi"}`, status: http.StatusForbidden},
		{name: "no token", path: path, body: `{"content":"hi"}`, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := s.do(t, http.MethodPost, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			assert.NotNil(t, resp.Error)
		})
	}
	assert.Empty(t, s.broadcaster.events)
}

func TestSendMessageErrorOrder(t *testing.T) {
	s := newTestServer(t)
	convID := s.supportConversationID(t)
	path := "/v1/conversations/" + convID + "/messages"

	rec, resp := s.do(t, http.MethodPost, "/v1/conversations/"+uuid.NewString()+"/messages", memberID, `{"content":""}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	rec, _ = s.do(t, http.MethodPost, path, outsiderID, `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, path, memberID, `{"content":"`+strings.Repeat("a", 4001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	padded := strings.Repeat("a", 3999) + "  "
	rec, _ = s.do(t, http.MethodPost, path, memberID, `{"content":"`+padded+`"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.broadcaster.events, 1)
}

func TestHistoryForbiddenForOutsider(t *testing.T) {
	s := newTestServer(t)
	convID := s.supportConversationID(t)

	rec, _ := s.do(t, http.MethodGet, "/v1/conversations/"+convID+"/messages", outsiderID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRealtimeStats(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/v1/admin/realtime", memberID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := s.do(t, http.MethodGet, "/v1/admin/realtime", adminID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]int
	decodeData(t, resp, &stats)
	assert.Equal(t, 0, stats["connections"])
}
