package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"branch-inventory-api-server/internal/feed"
)

type NotificationHandler struct {
	Feed *feed.Feed
}

// GetMyNotifications returns the caller's inbox, most recent first, with the
// current unread count.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	inbox, err := h.Feed.Inbox(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": inbox.Notifications(),
		"unread_count":  inbox.UnreadCount(),
	})
}

// GetUnreadCount returns just the badge number.
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	inbox, err := h.Feed.Inbox(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": inbox.UnreadCount()})
}

// MarkRead flips a notification's read flag. The local flip is rolled back if
// persisting it fails, so the badge never drifts from the store.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("user_id")
	notificationID := c.Param("id")

	if err := h.Feed.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	inbox, err := h.Feed.Inbox(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "unread_count": inbox.UnreadCount()})
}
