package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastFansOut(t *testing.T) {
	h := NewSSEHub(logger.Discard())
	defer h.Close()
	a, b := h.Connect(), h.Connect()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, h.Count())

	h.Broadcast(models.Message{Type: models.MsgActiveEditorChange})

	for _, c := range []*Stream{a, b} {
		select {
		case data := <-c.Events():
			var msg models.Message
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, models.MsgActiveEditorChange, msg.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("no SSE message")
		}
	}
}

func TestDisconnectClosesStream(t *testing.T) {
	h := NewSSEHub(logger.Discard())
	defer h.Close()
	c := h.Connect()
	h.Disconnect(c.ID)
	h.Disconnect(c.ID)

	_, ok := <-c.Events()
	assert.False(t, ok)
	assert.Zero(t, h.Count())
}

func TestCloseEndsStreamsAndIgnoresLateBroadcasts(t *testing.T) {
	h := NewSSEHub(logger.Discard())
	c := h.Connect()
	h.Close()
	h.Close()

	_, ok := <-c.Events()
	assert.False(t, ok)
	h.Broadcast(models.Message{Type: "late"})
}
