package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/logging"
	"taskhub/internal/realtime"
	"taskhub/internal/services"
)

type NotificationHandler struct {
	service services.NotificationService
	hub     *realtime.NotificationHub
}

func NewNotificationHandler(service services.NotificationService, hub *realtime.NotificationHub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

// GET /notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	userID := getUserID(c)
	unreadOnly := c.Query("unread") == "true"
	list, err := h.service.ListForUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		logging.L.Printf("[notification][list][err] user=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), getUserID(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := getUserID(c)
	if err := h.service.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /ws/notifications upgrades to a websocket and streams notifications
// until the client disconnects.
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID := getUserID(c)
	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		logging.L.Printf("[notification][ws][err] user=%d upgrade: %v", userID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
		return
	}
	h.hub.Register(userID, conn)
	logging.L.Printf("[notification][ws][open] user=%d", userID)

	// The stream is push-only; draining detects the close frame and
	// network drops.
	go func() {
		_ = conn.AwaitClose()
		h.hub.Unregister(userID, conn)
		logging.L.Printf("[notification][ws][close] user=%d", userID)
	}()
}
