package ws

import (
	"encoding/json"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/gorilla/websocket"
)

// connectionMonitor keeps the read deadline alive while the daemon pings us
func (c *Client) connectionMonitor() {
	c.Conn.SetReadDeadline(time.Now().Add(pongWait + pingPeriod))
	c.Conn.SetPingHandler(func(appData string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait + pingPeriod))
		return c.Conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})
}

func (c *Client) readPump() {
	defer c.log.Debug("Read pump stopped")
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			c.Close()
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait + pingPeriod))
		msg := new(models.Inbound)
		if err := json.Unmarshal(data, msg); err != nil {
			c.log.Warn("Failed to parse message", "err", err)
			continue
		}
		select {
		case c.incomingCh <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.log.Debug("Write pump stopped")
	for {
		select {
		case msg := <-c.sendCh:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) dispatchPump() {
	defer c.log.Debug("Dispatch pump stopped")
	for {
		select {
		case msg := <-c.incomingCh:
			handler, ok := c.handlers[msg.Type]
			if !ok {
				handler = c.fallback
			}
			if handler == nil {
				c.log.Debug("No handler for message type", "type", msg.Type)
				continue
			}
			if err := handler(msg); err != nil {
				c.log.Error("Handler error", "type", msg.Type, "err", err)
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// RunPumps starts all pumps and the connection monitor
func (c *Client) RunPumps() {
	c.connectionMonitor()
	go c.readPump()
	go c.writePump()
	go c.dispatchPump()
	c.log.Debug("All pumps started")
}
