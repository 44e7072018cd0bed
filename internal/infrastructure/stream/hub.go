// Package stream pushes cart and session changes to browsers over WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/infrastructure/queue"
)

const writeWait = 5 * time.Second

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer per connection
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(data)
}

func (c *client) writeLocked(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks the open connections of every profile. It implements
// queue.Sink.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

var _ queue.Sink = (*Hub)(nil)

// NewHub creates a Hub. checkOrigin may be nil to accept same-origin
// requests only.
func NewHub(checkOrigin func(*http.Request) bool, log zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log:     log,
		clients: make(map[string]map[*client]struct{}),
	}
}

// Serve upgrades the request, registers the connection for profileID and
// sends the events returned by snapshot, then keeps the connection until the
// browser goes away.
//
// snapshot runs after registration and under the connection's write lock,
// so a change delivered concurrently is written after the snapshot and
// never overtaken by it.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, profileID string, snapshot func() []queue.ChangeEvent) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	c := &client{conn: conn}

	c.mu.Lock()
	h.mu.Lock()
	if h.clients[profileID] == nil {
		h.clients[profileID] = make(map[*client]struct{})
	}
	h.clients[profileID][c] = struct{}{}
	h.mu.Unlock()
	defer h.remove(profileID, c)

	var initial []queue.ChangeEvent
	if snapshot != nil {
		initial = snapshot()
	}
	for _, e := range initial {
		data, err := json.Marshal(e)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("encode event: %w", err)
		}
		if err := c.writeLocked(data); err != nil {
			c.mu.Unlock()
			return nil
		}
	}
	c.mu.Unlock()

	// Browsers never send anything; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Deliver writes event to every connection of its profile. Connections that
// fail are dropped.
func (h *Hub) Deliver(_ context.Context, event queue.ChangeEvent) error {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[event.ProfileID]))
	for c := range h.clients[event.ProfileID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.log.Debug().Err(err).Str("profile_id", event.ProfileID).Msg("dropping stream client")
			h.remove(event.ProfileID, c)
		}
	}
	return nil
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Close closes every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			_ = c.conn.Close()
		}
		delete(h.clients, id)
	}
}

func (h *Hub) remove(profileID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[profileID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, profileID)
	}
	_ = c.conn.Close()
}
