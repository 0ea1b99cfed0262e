package realtime

import (
	"sync"

	"taskhub/internal/models"
)

// NotificationHub fans persisted notifications out to each user's live
// websocket connections. A user may hold several connections (tabs, devices).
type NotificationHub struct {
	mu    sync.RWMutex
	users map[int64]map[*Conn]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		users: make(map[int64]map[*Conn]struct{}),
	}
}

func (h *NotificationHub) Register(userID int64, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Conn]struct{})
	}
	h.users[userID][conn] = struct{}{}
}

func (h *NotificationHub) Unregister(userID int64, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
	_ = conn.Close()
}

// Push delivers n to every open connection of its user. Write errors are
// ignored; dead connections are reaped when their reader loop exits.
func (h *NotificationHub) Push(n *models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.users[n.UserID] {
		_ = conn.WriteJSON(n)
	}
}
