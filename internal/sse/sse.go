// Package sse fans notifications out to read-only Server-Sent Events clients.
package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/google/uuid"
)

const (
	streamBuffer = 100
	queueBuffer  = 256
)

// Stream is one subscribed client.
type Stream struct {
	ID      string
	Opened  time.Time
	events  chan []byte
	dropped int
}

// Events yields encoded messages; it is closed when the stream ends.
func (s *Stream) Events() <-chan []byte {
	return s.events
}

type SSEHub struct {
	mu      sync.RWMutex
	streams map[string]*Stream
	queue   chan []byte
	log     logger.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewSSEHub(log logger.Logger) *SSEHub {
	h := &SSEHub{
		streams: make(map[string]*Stream),
		queue:   make(chan []byte, queueBuffer),
		log:     log,
		done:    make(chan struct{}),
	}
	h.wg.Add(1)
	go h.fanOut()
	return h
}

func (h *SSEHub) fanOut() {
	defer h.wg.Done()
	for {
		select {
		case data := <-h.queue:
			h.mu.Lock()
			for _, s := range h.streams {
				select {
				case s.events <- data:
				default:
					s.dropped++
					h.log.Warn("SSE stream lagging, dropping message", "id", s.ID, "dropped", s.dropped)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			return
		}
	}
}

// Broadcast encodes msg once and queues it for every stream without blocking.
func (h *SSEHub) Broadcast(msg models.Message) {
	select {
	case <-h.done:
		return
	default:
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to marshal SSE message", "type", msg.Type, "err", err)
		return
	}
	select {
	case h.queue <- data:
	default:
		h.log.Warn("SSE queue full, dropping message", "type", msg.Type)
	}
}

// Connect opens a stream with a fresh id.
func (h *SSEHub) Connect() *Stream {
	s := &Stream{
		ID:     uuid.NewString(),
		Opened: time.Now(),
		events: make(chan []byte, streamBuffer),
	}
	h.mu.Lock()
	h.streams[s.ID] = s
	h.mu.Unlock()
	h.log.Info("SSE stream opened", "id", s.ID)
	return s
}

// Disconnect ends the stream; unknown ids are ignored.
func (h *SSEHub) Disconnect(id string) {
	h.mu.Lock()
	s, ok := h.streams[id]
	if ok {
		delete(h.streams, id)
		close(s.events)
	}
	h.mu.Unlock()
	if ok {
		h.log.Info("SSE stream closed", "id", id, "open_for", time.Since(s.Opened).Round(time.Second))
	}
}

func (h *SSEHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams)
}

// Close stops fan-out and ends every stream.
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
		h.mu.Lock()
		for id, s := range h.streams {
			close(s.events)
			delete(h.streams, id)
		}
		h.mu.Unlock()
	})
}
