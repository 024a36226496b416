package handlers

import (
	"net/http"

	"github.com/1023-Ventures/qlaunch/internal/ws"
	"github.com/gin-gonic/gin"
)

// UpgradeHandler accepts /ws?role=ui|editor. A missing role means ui.
func (h *Handler) UpgradeHandler(c *gin.Context) {
	role := c.DefaultQuery("role", ws.RoleUI)
	if role != ws.RoleUI && role != ws.RoleEditor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role " + role})
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade WebSocket", "role", role, "err", err)
		return
	}
	if _, err := h.Hub.Connect(role, conn); err != nil {
		h.log.Warn("Rejected WebSocket connection", "role", role, "err", err)
	}
}
