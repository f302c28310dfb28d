package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkahng/war/websocket"
)

func dial(t *testing.T, s *httptest.Server, header http.Header) *gwebsocket.Conn {
	t.Helper()
	conn, _, err := gwebsocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http"), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gwebsocket.Conn) websocket.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_GreetingAndPublish(t *testing.T) {
	hub := websocket.NewHub(websocket.DefaultUpgrader(nil), nil)
	greeting := func() *websocket.Message {
		return &websocket.Message{Type: websocket.MessageTypeScores, Data: map[string]int{"player_1": 3, "player_2": 4}}
	}
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, greeting)
	}))
	defer s.Close()

	conn := dial(t, s, nil)

	msg := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeScores, msg.Type)
	b, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"player_1":3,"player_2":4}`, string(b))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(websocket.Message{Type: websocket.MessageTypeGameResult, Data: "player_2"}))
	msg = readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeGameResult, msg.Type)
	assert.Equal(t, "player_2", msg.Data)

	// closing the connection should unregister the client
	_ = conn.WriteControl(gwebsocket.CloseMessage, gwebsocket.FormatCloseMessage(gwebsocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, hub.Close(ctx))
	assert.ErrorIs(t, hub.Publish(websocket.Message{Type: websocket.MessageTypeScores}), websocket.ErrHubClosed)
}

func TestHub_PublishDuringGreetingIsDelivered(t *testing.T) {
	hub := websocket.NewHub(websocket.DefaultUpgrader(nil), nil)
	published := make(chan error, 1)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, func() *websocket.Message {
			// A game finishing while the snapshot is taken.
			go func() {
				published <- hub.Publish(websocket.Message{Type: websocket.MessageTypeGameResult, Data: "concurrent"})
			}()
			return &websocket.Message{Type: websocket.MessageTypeScores, Data: "snapshot"}
		})
	}))
	defer s.Close()

	conn := dial(t, s, nil)

	first := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeScores, first.Type)
	assert.Equal(t, "snapshot", first.Data)

	second := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeGameResult, second.Type)
	assert.Equal(t, "concurrent", second.Data)
	assert.NoError(t, <-published)
}

func TestHub_NilGreetingMessage(t *testing.T) {
	hub := websocket.NewHub(websocket.DefaultUpgrader(nil), nil)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, func() *websocket.Message { return nil })
	}))
	defer s.Close()

	conn := dial(t, s, nil)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(websocket.Message{Type: websocket.MessageTypeGameResult, Data: "only"}))
	msg := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeGameResult, msg.Type)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := websocket.NewHub(websocket.DefaultUpgrader(nil), nil)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, nil)
	}))
	defer s.Close()

	conn := dial(t, s, nil)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Close(ctx))
	assert.Equal(t, 0, hub.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestDefaultUpgrader_CheckOrigin(t *testing.T) {
	upgrader := websocket.DefaultUpgrader([]string{"http://localhost:3000"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "allowed origin", origin: "http://localhost:3000", want: true},
		{name: "no origin header", origin: "", want: true},
		{name: "foreign origin", origin: "http://evil.example", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, upgrader.CheckOrigin(r))
		})
	}

	assert.Nil(t, websocket.DefaultUpgrader(nil).CheckOrigin)
}
