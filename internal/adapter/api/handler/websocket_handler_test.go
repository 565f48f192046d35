package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourhub/internal/domain/entity"
	ws "tourhub/internal/infrastructure/websocket"
)

func dial(t *testing.T, server *httptest.Server, query string, header http.Header) (*gorillaws.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	return gorillaws.DefaultDialer.Dial(url, header)
}

func readFrame(t *testing.T, conn *gorillaws.Conn) ws.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame ws.WSMessage
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.e)
	defer server.Close()

	_, resp, err := dial(t, server, "", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, server, "?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketConversationFlow(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.e)
	defer server.Close()
	defer s.manager.Shutdown()

	convID := s.supportConversationID(t)

	member, _, err := dial(t, server, "?token="+memberID, nil)
	require.NoError(t, err)
	defer member.Close()

	admin, _, err := dial(t, server, "", http.Header{"Authorization": []string{"Bearer " + adminID}})
	require.NoError(t, err)
	defer admin.Close()

	for _, conn := range []*gorillaws.Conn{member, admin} {
		require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": ws.EventJoinConversation, "data": convID}))
	}
	require.Eventually(t, func() bool { return s.manager.RoomSize(convID) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, member.WriteJSON(map[string]interface{}{
		"type": ws.EventSendMessage,
		"data": ws.SendMessageData{ConversationID: convID, SenderID: memberID, Content: "Hi from the trail"},
	}))

	var ids []string
	for _, conn := range []*gorillaws.Conn{member, admin} {
		frame := readFrame(t, conn)
		require.Equal(t, ws.EventReceiveMessage, frame.Type)

		raw, err := json.Marshal(frame.Data)
		require.NoError(t, err)
		var message entity.MessageView
		require.NoError(t, json.Unmarshal(raw, &message))
		assert.Equal(t, "Hi from the trail", message.Content)
		ids = append(ids, message.ID)
	}
	assert.Equal(t, ids[0], ids[1])

	require.NoError(t, admin.WriteJSON(map[string]interface{}{
		"type": ws.EventMessagesSeen,
		"data": ws.SeenData{ConversationID: convID, UserID: adminID},
	}))
	for _, conn := range []*gorillaws.Conn{member, admin} {
		frame := readFrame(t, conn)
		assert.Equal(t, ws.EventUpdateSeenStatus, frame.Type)
	}

	member.Close()
	require.Eventually(t, func() bool { return s.manager.RoomSize(convID) == 1 }, 2*time.Second, 10*time.Millisecond)
}
