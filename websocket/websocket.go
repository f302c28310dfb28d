// Package websocket pushes game results and score snapshots to connected
// browsers.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type MessageType string

const (
	MessageTypeScores     MessageType = "scores"
	MessageTypeGameResult MessageType = "game_result"
)

// Message is the envelope written to every client.
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
	egressSize = 32
)

// ErrHubClosed is returned by Publish after the hub has shut down.
var ErrHubClosed = errors.New("websocket hub closed")

// DefaultUpgrader accepts connections whose Origin header is in origins. An
// empty origins list accepts same-host requests only.
func DefaultUpgrader(origins []string) websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		HandshakeTimeout:  0,
		WriteBufferPool:   nil,
		Subprotocols:      nil,
		Error:             nil,
		CheckOrigin:       nil,
		EnableCompression: false,
	}
	if len(origins) > 0 {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		}
	}
	return upgrader
}

// client owns one websocket connection. All writes happen on the goroutine
// running writeLoop.
type client struct {
	conn   *websocket.Conn
	egress chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writeLoop(logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case msg := <-c.egress:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("websocket ping failed", slog.Any("error", err))
				return
			}
		}
	}
}

// readLoop discards client messages and returns when the connection closes.
func (c *client) readLoop(logger *slog.Logger) {
	defer c.close()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Debug("websocket read failed", slog.Any("error", err))
			}
			return
		}
	}
}

// Hub tracks connected clients and fans messages out to all of them.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

// NewHub returns a hub that upgrades with upgrader.
func NewHub(upgrader websocket.Upgrader, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: upgrader,
		logger:   logger,
		clients:  map[*client]struct{}{},
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues msg for every client. Clients whose queue is full are
// disconnected rather than allowed to stall the others.
func (h *Hub) Publish(msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}
	for c := range h.clients {
		select {
		case c.egress <- b:
		default:
			h.logger.Warn("dropping slow websocket client")
			c.close()
		}
	}
	return nil
}

// Serve upgrades the request and keeps the connection registered until it
// closes. greeting, when non-nil, is called after the client is registered
// and its message is queued ahead of anything published later.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, greeting func() *Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		return
	}
	c := &client{
		conn:   conn,
		egress: make(chan []byte, egressSize),
		done:   make(chan struct{}),
	}
	if !h.register(c, greeting) {
		c.close()
		return
	}

	go func() {
		defer h.wg.Done()
		defer h.unregister(c)
		go c.writeLoop(h.logger)
		c.readLoop(h.logger)
	}()
}

// register adds c under the write lock. Publish holds the read lock, so the
// greeting is built and queued before any message published afterwards, and
// the wait group grows before Close can wait on it.
func (h *Hub) register(c *client, greeting func() *Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	h.logger.Debug("websocket client registered", slog.Int("clients", len(h.clients)))

	if greeting == nil {
		return true
	}
	msg := greeting()
	if msg == nil {
		return true
	}
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode websocket greeting", slog.Any("error", err))
		return true
	}
	// The queue is empty at this point.
	c.egress <- b
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	h.logger.Debug("websocket client unregistered", slog.Int("clients", n))
}

// Close disconnects every client and waits for their goroutines to exit or
// ctx to end.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
