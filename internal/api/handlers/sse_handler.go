package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/gin-gonic/gin"
)

const sseKeepAlive = 30 * time.Second

// StreamHandler serves notifications as Server-Sent Events. The stream opens
// with a connected message and the current watch patterns.
func (h *Handler) StreamHandler(c *gin.Context) {
	stream := h.SSE.Connect()
	defer h.SSE.Disconnect(stream.ID)

	hdr := c.Writer.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("X-Accel-Buffering", "no")

	greeting := []models.Message{
		{Type: "connected", Payload: map[string]string{"id": stream.ID}},
		{Type: models.MsgWatchPatterns, Payload: models.WatchPatterns{
			Patterns:     h.Patterns.WatchPatterns(),
			WatcherCount: h.Patterns.WatcherCount(),
			Timestamp:    models.Now(),
		}},
	}
	for _, msg := range greeting {
		if data, err := json.Marshal(msg); err == nil {
			writeData(c.Writer, data)
		}
	}
	c.Writer.Flush()

	keepalive := time.NewTicker(sseKeepAlive)
	defer keepalive.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-stream.Events():
			if !ok {
				return false
			}
			writeData(w, data)
			return true
		case <-keepalive.C:
			io.WriteString(w, ": keepalive\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func writeData(w io.Writer, data []byte) {
	fmt.Fprintf(w, "data: %s\n\n", data)
}
