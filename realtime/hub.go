// Package realtime fans out committed assignment events to dashboard
// clients connected over WebSocket. No pack example wires a
// server-side hub directly, so this follows the mutex-guarded
// connection-set shape this codebase uses elsewhere for shared
// mutable state, built fresh around gorilla/websocket.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is pushed to every connected client after a committed assignment.
type Event struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// Payload describes one assignment outcome.
type Payload struct {
	LeadID           string `json:"lead_id"`
	CallerID         string `json:"caller_id,omitempty"`
	AssignmentStatus string `json:"assignment_status"`
	AssignmentReason string `json:"assignment_reason"`
	Timestamp        string `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client wraps one connected dashboard socket with a buffered outbound
// channel so a slow reader cannot block the broadcaster.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages the set of connected dashboard clients and broadcasts
// committed assignment events to all of them. Delivery is best-effort:
// the lead listing endpoint is the reconciliation path for clients
// that miss an event or reconnect.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// ServeWS upgrades r into a WebSocket connection and registers it with
// the hub. It blocks, discarding any inbound client messages, until
// the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.register(c)
	defer h.unregister(c)

	go h.writePump(c)
	return h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) writePump(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.Close()
}

func (h *Hub) readPump(c *client) error {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// Broadcast sends an assignment event to every connected client,
// dropping it for any client whose outbound buffer is full rather
// than blocking the caller.
func (h *Hub) Broadcast(payload Payload) {
	body, err := json.Marshal(Event{Type: "assignment", Payload: payload})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- body:
		default:
		}
	}
}
