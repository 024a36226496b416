package ws

import (
	"encoding/json"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/gorilla/websocket"
)

// readPump decodes frames from the client and queues them for dispatch
func (h *Hub) readPump(c *Connection) {
	defer h.wg.Done()
	defer h.disconnect(c)
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	h.handlePong(c)
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("WebSocket read error", "id", c.ID, "role", c.Role, "err", err)
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		msg := new(models.Inbound)
		if err := json.Unmarshal(data, msg); err != nil {
			h.log.Warn("Failed to parse message", "id", c.ID, "err", err)
			continue
		}
		select {
		case c.incomingCh <- msg:
		case <-c.disconnectCh:
			return
		}
	}
}

// writePump is the only writer of data frames on the connection
func (h *Hub) writePump(c *Connection) {
	defer h.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer h.disconnect(c)
	for {
		select {
		case data := <-c.sendCh:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Warn("Failed to write message", "id", c.ID, "err", err)
				return
			}
		case <-ticker.C:
			if err := sendPing(c.Conn); err != nil {
				h.log.Warn("Ping failed", "id", c.ID, "err", err)
				return
			}
		case <-c.disconnectCh:
			return
		}
	}
}

// dispatchPump runs handlers for one connection in arrival order
func (h *Hub) dispatchPump(c *Connection, hooks []func(*Connection)) {
	defer h.wg.Done()
	for _, hook := range hooks {
		hook(c)
	}
	for {
		select {
		case msg := <-c.incomingCh:
			handler, ok := h.handler(c.Role, msg.Type)
			if !ok {
				h.log.Warn("No handler for message type", "type", msg.Type, "role", c.Role)
				continue
			}
			if err := handler(msg, c); err != nil {
				h.log.Error("Handler error", "type", msg.Type, "role", c.Role, "err", err)
			}
		case <-c.disconnectCh:
			return
		}
	}
}
