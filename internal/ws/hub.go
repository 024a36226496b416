// Package ws carries the JSON message protocol over WebSocket: the Hub serves
// UI and editor clients, the Client connects to a running daemon.
package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/gorilla/websocket"
)

// HandlerFunc handles one inbound message type for a role.
type HandlerFunc func(msg *models.Inbound, c *Connection) error

type Hub struct {
	log logger.Logger

	mu          sync.RWMutex
	connections map[string]*Connection
	handlers    map[string]map[string]HandlerFunc
	onConnect   map[string][]func(*Connection)
	closed      bool
	wg          sync.WaitGroup
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		log:         log,
		connections: make(map[string]*Connection),
		handlers:    make(map[string]map[string]HandlerFunc),
		onConnect:   make(map[string][]func(*Connection)),
	}
}

// RegisterHandler routes msgType from clients of role to handler. Registering
// twice replaces the earlier handler.
func (h *Hub) RegisterHandler(role, msgType string, handler HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers[role] == nil {
		h.handlers[role] = make(map[string]HandlerFunc)
	}
	h.handlers[role][msgType] = handler
}

// OnConnect runs fn on the dispatch goroutine of every new connection of role,
// before any of its messages are handled.
func (h *Hub) OnConnect(role string, fn func(*Connection)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConnect[role] = append(h.onConnect[role], fn)
}

func (h *Hub) handler(role, msgType string) (HandlerFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.handlers[role][msgType]
	return fn, ok
}

// Connect registers an upgraded connection and starts its pumps.
func (h *Hub) Connect(role string, conn *websocket.Conn) (*Connection, error) {
	c := NewConnection(role, conn)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return nil, fmt.Errorf("hub closed")
	}
	h.connections[c.ID] = c
	hooks := append([]func(*Connection){}, h.onConnect[role]...)
	h.wg.Add(3)
	h.mu.Unlock()

	h.log.Info("Client connected", "id", c.ID, "role", role, "remote", conn.RemoteAddr().String())
	go h.readPump(c)
	go h.writePump(c)
	go h.dispatchPump(c, hooks)
	return c, nil
}

func (h *Hub) disconnect(c *Connection) {
	h.mu.Lock()
	_, ok := h.connections[c.ID]
	delete(h.connections, c.ID)
	h.mu.Unlock()
	c.close()
	if ok {
		h.log.Info("Client disconnected", "id", c.ID, "role", c.Role)
	}
}

// Broadcast sends msg to every UI client. It never blocks: a client whose
// buffer is full misses the message.
func (h *Hub) Broadcast(msg models.Message) {
	h.SendToRole(RoleUI, msg)
}

// SendToRole sends msg to every client of role and reports how many accepted it.
func (h *Hub) SendToRole(role string, msg models.Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to marshal message", "type", msg.Type, "err", err)
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.connections {
		if c.Role != role {
			continue
		}
		if c.enqueue(data) {
			sent++
		} else {
			h.log.Warn("Send buffer full, dropping message", "id", c.ID, "type", msg.Type)
		}
	}
	return sent
}

// Send writes msg to a single connection.
func (h *Hub) Send(c *Connection, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	if !c.enqueue(data) {
		return fmt.Errorf("connection %s: send buffer full or closed", c.ID)
	}
	return nil
}

func (h *Hub) Count(role string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.connections {
		if c.Role == role {
			n++
		}
	}
	return n
}

// Close disconnects every client and waits for their pumps to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		h.disconnect(c)
	}
	h.wg.Wait()
}
