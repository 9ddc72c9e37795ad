package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"glowbook/models"
	"glowbook/services/realtime"
)

// DashboardHandler serves live role-scoped dashboard views.
type DashboardHandler struct {
	Bus    *realtime.Bus
	Store  realtime.ViewStore
	Logger *zap.Logger
}

// StreamDashboard handles GET /api/bookings/stream: a server-sent-events feed
// of recomputed dashboard snapshots scoped to the authenticated caller.
func (h *DashboardHandler) StreamDashboard(c *gin.Context) {
	role := c.GetString("role")
	ownerID := c.GetString("subjectID")
	switch role {
	case realtime.RoleCustomer, realtime.RoleArtist, realtime.RoleSalon, realtime.RoleAll:
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "role cannot subscribe to dashboards"})
		return
	}

	sync := realtime.NewDashboardSync(h.Bus, h.Store, role, ownerID, h.Logger)
	defer sync.Unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case snap, ok := <-sync.Snapshots():
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		}
	})
}

// Snapshot handles GET /api/bookings/dashboard: a one-shot view for clients
// that poll instead of streaming.
func (h *DashboardHandler) Snapshot(c *gin.Context) {
	role := c.GetString("role")
	ownerID := c.GetString("subjectID")

	bookings, err := h.Store.ListForOwner(c.Request.Context(), role, ownerID)
	if err != nil {
		h.Logger.Error("dashboard snapshot failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"stats":    models.ComputeStats(bookings),
	})
}
