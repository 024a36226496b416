package handlers

import (
	"context"
	"net/http"

	"github.com/1023-Ventures/qlaunch/internal/api/middleware"
	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/internal/service"
	"github.com/1023-Ventures/qlaunch/internal/sse"
	"github.com/1023-Ventures/qlaunch/internal/terminal"
	"github.com/1023-Ventures/qlaunch/internal/ws"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SnapshotSource is satisfied by *snapshot.Aggregator.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (models.WorkspaceInfo, error)
}

// SnapshotRequester is satisfied by *snapshot.Publisher.
type SnapshotRequester interface {
	RequestSnapshot()
}

// PatternStore is satisfied by *notifier.Notifier.
type PatternStore interface {
	WatchPatterns() []string
	WatcherCount() int
	UpdateWatchPatterns(patterns []string)
}

type Handler struct {
	Hub       *ws.Hub
	SSE       *sse.SSEHub
	Snapshots SnapshotSource
	Publisher SnapshotRequester
	Patterns  PatternStore
	Terminals *terminal.Manager
	Service   *service.Service
	Origins   *middleware.OriginPolicy
	upgrader  websocket.Upgrader
	log       logger.Logger
}

func NewHandler(
	hub *ws.Hub,
	sseHub *sse.SSEHub,
	snapshots SnapshotSource,
	publisher SnapshotRequester,
	patterns PatternStore,
	terminals *terminal.Manager,
	svc *service.Service,
	origins *middleware.OriginPolicy,
	log logger.Logger,
) *Handler {
	if origins == nil {
		origins = middleware.NewOriginPolicy(nil)
	}
	return &Handler{
		Hub:       hub,
		SSE:       sseHub,
		Snapshots: snapshots,
		Publisher: publisher,
		Patterns:  patterns,
		Terminals: terminals,
		Service:   svc,
		Origins:   origins,
		upgrader:  websocket.Upgrader{CheckOrigin: origins.CheckOrigin},
		log:       log,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := models.HealthCheck{
		Status:    "Healthy",
		Uptime:    h.Service.Uptime(),
		UIClients: h.Hub.Count(ws.RoleUI) + h.SSE.Count(),
		Editors:   h.Hub.Count(ws.RoleEditor),
		Terminals: h.Terminals.Count(),
	}
	if c.Query("metrics") == "true" {
		health.HostMetrics = h.Service.GetHostMetrics()
	}
	c.JSON(http.StatusOK, models.Message{Type: "health_check", Payload: health})
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	info, err := h.Snapshots.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.Message{Type: models.MsgWorkspaceInfo, Payload: info})
}

// RefreshSnapshot broadcasts a fresh snapshot to every connected UI.
func (h *Handler) RefreshSnapshot(c *gin.Context) {
	h.Publisher.RequestSnapshot()
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Snapshot refresh initiated"})
}

func (h *Handler) GetWatchPatterns(c *gin.Context) {
	c.JSON(http.StatusOK, models.Message{
		Type: models.MsgWatchPatterns,
		Payload: models.WatchPatterns{
			Patterns:     h.Patterns.WatchPatterns(),
			WatcherCount: h.Patterns.WatcherCount(),
			Timestamp:    models.Now(),
		},
	})
}

func (h *Handler) UpdateWatchPatterns(c *gin.Context) {
	var req struct {
		Patterns []string `json:"patterns" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Patterns binding error: " + err.Error()})
		return
	}
	h.Patterns.UpdateWatchPatterns(req.Patterns)
	c.JSON(http.StatusOK, models.Message{
		Type: models.MsgWatchPatternsUpdated,
		Payload: models.WatchPatternsUpdated{
			Patterns:  h.Patterns.WatchPatterns(),
			Timestamp: models.Now(),
		},
	})
}
