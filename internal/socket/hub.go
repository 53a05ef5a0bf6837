// Package socket is the change-feed transport: a hub of websocket
// connections over which row-level change events are pushed to subscribed
// dashboards.
package socket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Change-feed event types, mirroring row-level store changes.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent is the wire shape delivered to subscribers.
type ChangeEvent struct {
	EventType string      `json:"event_type"`
	Table     string      `json:"table"`
	NewRow    interface{} `json:"new_row"`
}

// client is one subscribed connection. Gorilla allows at most one concurrent
// writer per connection, so every send goes through writeMu.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub manages the feed subscriptions. A subscription is scoped to exactly one
// session: connections are keyed by user id, then session id, so two sessions
// of the same user never share a channel and signing one out leaves the other
// connected.
type Hub struct {
	clients map[string]map[string]*client
	mu      sync.RWMutex
	log     *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[string]map[string]*client),
		log:     log,
	}
}

// Register adds a session's subscription. A session holds at most one
// channel; a reconnect replaces the previous connection.
func (h *Hub) Register(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[string]*client)
	}
	if old, ok := h.clients[userID][sessionID]; ok {
		old.conn.Close()
	}
	h.clients[userID][sessionID] = &client{conn: conn}
	h.log.Infow("feed subscription registered", "userID", userID, "sessionID", sessionID)
}

// Unregister releases a session's subscription.
func (h *Hub) Unregister(userID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		if _, ok := conns[sessionID]; ok {
			delete(conns, sessionID)
			if len(conns) == 0 {
				delete(h.clients, userID)
			}
			h.log.Infow("feed subscription released", "userID", userID, "sessionID", sessionID)
		}
	}
}

// CloseSession closes and releases a session's connection. Wired to the
// session registry so signing out tears the channel down.
func (h *Hub) CloseSession(userID, sessionID string) {
	h.mu.Lock()
	c, ok := h.clients[userID][sessionID]
	h.mu.Unlock()
	if ok {
		c.conn.Close()
		h.Unregister(userID, sessionID)
	}
}

// PublishChange sends a change event to every session of the recipient. A
// recipient with no open channel is not an error; they catch up from the
// store on next fetch.
func (h *Hub) PublishChange(userID, table, eventType string, row interface{}) {
	payload, err := json.Marshal(ChangeEvent{EventType: eventType, Table: table, NewRow: row})
	if err != nil {
		h.log.Errorw("failed to encode change event", "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.clients[userID]
	if !ok {
		h.log.Debugw("no feed subscriber for change event", "userID", userID, "table", table)
		return
	}
	for sessionID, c := range clients {
		if err := c.send(payload); err != nil {
			h.log.Warnw("failed to push change event", "userID", userID, "sessionID", sessionID, "err", err)
		}
	}
}
