package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"landmarket/notify"
)

type notificationHandler struct {
	store *notify.Store
}

type notificationView struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

func (h *notificationHandler) list(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		writeError(c, http.StatusUnauthorized, "Unauthenticated", "authentication required")
		return
	}

	items, err := h.store.List(c.Request.Context(), user.ID, c.Query("unread") == "true", queryInt(c, "limit"))
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]notificationView, 0, len(items))
	for _, n := range items {
		views = append(views, notificationView{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
		})
	}
	c.JSON(http.StatusOK, paged{Items: views, Total: len(views)})
}

func (h *notificationHandler) unreadCount(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		writeError(c, http.StatusUnauthorized, "Unauthenticated", "authentication required")
		return
	}

	count, err := h.store.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *notificationHandler) markRead(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		writeError(c, http.StatusUnauthorized, "Unauthenticated", "authentication required")
		return
	}

	if err := h.store.MarkRead(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *notificationHandler) markAllRead(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		writeError(c, http.StatusUnauthorized, "Unauthenticated", "authentication required")
		return
	}

	if err := h.store.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
