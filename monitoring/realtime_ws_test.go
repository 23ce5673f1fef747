package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *WebSocketHub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubPublishesToClients(t *testing.T) {
	hub := NewWebSocketHub(nil)
	go hub.Start()
	defer hub.Stop()

	conn := dialHub(t, hub)
	require.NoError(t, hub.Publish(PredictionEvent, "heart", map[string]int{"prediction": 1}))

	msg := readMessage(t, conn)
	assert.Equal(t, PredictionEvent, msg.Type)
	assert.Equal(t, "heart", msg.Topic)
	assert.NotEmpty(t, msg.ID)
	assert.JSONEq(t, `{"prediction":1}`, string(msg.Data))
}

func TestHubSubscriptionFiltersTopics(t *testing.T) {
	hub := NewWebSocketHub(nil)
	go hub.Start()
	defer hub.Stop()

	conn := dialHub(t, hub)
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "subscribe", Topic: "diabetes"}))

	// The subscription is applied asynchronously; publish until the filter takes effect.
	require.Eventually(t, func() bool {
		for client := range snapshotClients(hub) {
			if client.wants("diabetes") && !client.wants("heart") {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(PredictionEvent, "heart", map[string]int{"prediction": 0}))
	require.NoError(t, hub.Publish(PredictionEvent, "diabetes", map[string]int{"prediction": 1}))

	msg := readMessage(t, conn)
	assert.Equal(t, "diabetes", msg.Topic)
}

func snapshotClients(h *WebSocketHub) map[*Client]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[*Client]bool, len(h.clients))
	for c := range h.clients {
		out[c] = true
	}
	return out
}
