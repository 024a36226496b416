package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/internal/terminal"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const terminalWriteWait = 10 * time.Second

func (h *Handler) ListTerminals(c *gin.Context) {
	c.JSON(http.StatusOK, models.Message{Type: "terminal_list", Payload: h.Terminals.List()})
}

func (h *Handler) OpenTerminal(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		Cwd  string `json:"cwd" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Terminal binding error: " + err.Error()})
		return
	}
	if req.Name == "" {
		req.Name = "Terminal - " + filepath.Base(req.Cwd)
	}
	info, err := h.Terminals.Open(req.Name, req.Cwd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, models.Message{Type: models.MsgTerminalOpened, Payload: info})
}

func (h *Handler) CloseTerminal(c *gin.Context) {
	if err := h.Terminals.Close(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, terminal.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Terminal close initiated"})
}

type terminalControl struct {
	Type string `json:"type"`
	Rows uint16 `json:"rows"`
	Cols uint16 `json:"cols"`
}

// AttachTerminal bridges a WebSocket to a pty session. Binary frames carry
// terminal bytes both ways; text frames carry {"type":"resize"} controls.
func (h *Handler) AttachTerminal(c *gin.Context) {
	id := c.Param("id")
	sess, err := h.Terminals.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade terminal WebSocket", "id", id, "err", err)
		return
	}
	defer conn.Close()

	output, cancel := sess.Subscribe()
	defer cancel()
	h.log.Info("Terminal attached", "id", id)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for chunk := range output {
			conn.SetWriteDeadline(time.Now().Add(terminalWriteWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				return
			}
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "terminal exited"),
			time.Now().Add(terminalWriteWait))
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch kind {
		case websocket.BinaryMessage:
			if _, err := sess.Write(data); err != nil {
				h.log.Debug("Terminal write failed", "id", id, "err", err)
			}
		case websocket.TextMessage:
			var ctl terminalControl
			if json.Unmarshal(data, &ctl) == nil && ctl.Type == "resize" {
				if err := sess.Resize(ctl.Rows, ctl.Cols); err != nil {
					h.log.Debug("Terminal resize failed", "id", id, "err", err)
				}
			}
		}
	}
	cancel()
	<-writerDone
	h.log.Info("Terminal detached", "id", id)
}
