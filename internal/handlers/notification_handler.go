package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/response"
	"github.com/gravadigital/residencia-api/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	list, err := h.notifications.FindByUser(c.Request.Context(), caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", list)
}

// Unread handles GET /api/notifications/unread
func (h *NotificationHandler) Unread(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	list, err := h.notifications.FindUnreadByUser(c.Request.Context(), caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", list)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", gin.H{"count": count})
}

// MarkAsRead handles PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	n, err := h.notifications.MarkAsRead(c.Request.Context(), id, caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Notification marked as read", n)
}

// MarkAllAsRead handles PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllAsRead(c.Request.Context(), caller.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Notifications marked as read", gin.H{"updated": updated})
}

// Delete handles DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.Remove(c.Request.Context(), id, caller.UserID); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Notification deleted", nil)
}
