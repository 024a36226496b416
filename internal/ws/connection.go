package ws

import (
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Roles a client may connect with.
const (
	RoleUI     = models.RoleUI
	RoleEditor = models.RoleEditor
)

type Connection struct {
	ID   string
	Role string
	Conn *websocket.Conn

	mu       sync.Mutex
	lastSeen time.Time

	disconnectCh chan struct{}
	closeOnce    sync.Once
	sendCh       chan []byte
	incomingCh   chan *models.Inbound
}

func NewConnection(role string, conn *websocket.Conn) *Connection {
	return &Connection{
		ID:           uuid.New().String(),
		Role:         role,
		Conn:         conn,
		lastSeen:     time.Now(),
		disconnectCh: make(chan struct{}),
		sendCh:       make(chan []byte, 256),
		incomingCh:   make(chan *models.Inbound, 256),
	}
}

func (c *Connection) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// enqueue hands an encoded frame to the write pump without blocking.
func (c *Connection) enqueue(data []byte) bool {
	select {
	case <-c.disconnectCh:
		return false
	default:
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		return false
	}
}

// Disconnected is closed once the connection is torn down.
func (c *Connection) Disconnected() <-chan struct{} {
	return c.disconnectCh
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.disconnectCh)
		c.Conn.Close()
	})
}
