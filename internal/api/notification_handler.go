package api

import (
	"go-study-group/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := getPaginationParams(c)

	notifications, err := h.notificationService.GetUserNotifications(userID, limit, offset)
	if err != nil {
		writeError(c, err, "Failed to retrieve notifications")
		return
	}

	unread, err := h.notificationService.GetUnreadCount(userID)
	if err != nil {
		writeError(c, err, "Failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	idStr := c.Param("notification_id")
	id64, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification_id parameter"})
		return
	}

	if err := h.notificationService.MarkRead(uint(id64), userID); err != nil {
		writeError(c, err, "Failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
