package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"branch-inventory-api-server/internal/cart"
	"branch-inventory-api-server/internal/feed"
	"branch-inventory-api-server/internal/models"
	"branch-inventory-api-server/internal/socket"
)

// RequestStore is the slice of the store the request handler uses.
type RequestStore interface {
	SubmitRequest(ctx context.Context, request models.InventoryRequest, notification models.Notification) error
	RequestsForUser(ctx context.Context, userID, status string) ([]models.InventoryRequest, error)
	AllRequests(ctx context.Context, status string) ([]models.InventoryRequest, error)
	ReviewRequest(ctx context.Context, requestID, requestStatus, notificationStatus, message string) (models.Notification, error)
}

type RequestHandler struct {
	Store RequestStore
	Carts *cart.Store
	Feed  *feed.Feed
	Hub   *socket.Hub
	Log   *zap.SugaredLogger
}

// SubmitRequest turns the session's cart into a persisted request plus its
// pending notification. Both rows are written in one transaction; on success
// the cart is cleared, on failure it is left untouched and the store's error
// is surfaced verbatim.
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionCart := h.Carts.Get(c.GetString("session_id"))

	lines := sessionCart.Lines()
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	items := make([]models.RequestItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.RequestItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	now := time.Now()
	request := models.InventoryRequest{
		RequestID: fmt.Sprintf("REQ-%s", uuid.New().String()[:8]),
		UserID:    userID,
		Items:     items,
		Status:    models.RequestStatusPending,
		CreatedAt: now,
	}
	notification := models.Notification{
		NotificationID: uuid.New().String(),
		UserID:         userID,
		RequestID:      request.RequestID,
		Title:          "New Inventory Request",
		Message:        fmt.Sprintf("Your inventory request #%s has been submitted and is pending approval.", request.RequestID),
		Status:         models.NotificationStatusPending,
		CreatedAt:      now,
	}

	if err := h.Store.SubmitRequest(c.Request.Context(), request, notification); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sessionCart.Clear()
	h.Feed.Publish(notification)
	h.Hub.PublishChange(userID, "notifications", socket.EventInsert, notification)

	h.Log.Infow("request submitted", "requestID", request.RequestID, "userID", userID, "items", len(items))
	c.JSON(http.StatusCreated, request)
}

// GetMyRequests lists the caller's requests, optionally filtered by status.
func (h *RequestHandler) GetMyRequests(c *gin.Context) {
	requests, err := h.Store.RequestsForUser(c.Request.Context(), c.GetString("user_id"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetAllRequests lists every request for the HQ review queue.
func (h *RequestHandler) GetAllRequests(c *gin.Context) {
	requests, err := h.Store.AllRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, requests)
}

type ReviewRequestPayload struct {
	Status string `json:"status" binding:"required,oneof=approved rejected processing"`
}

// ReviewRequest records the HQ decision on a pending request. The request row
// and its notification are updated together; the requester learns about the
// transition through the change feed. "processing" marks the notification
// without settling the request.
func (h *RequestHandler) ReviewRequest(c *gin.Context) {
	requestID := c.Param("id")

	var payload ReviewRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestStatus := payload.Status
	var message string
	switch payload.Status {
	case models.NotificationStatusApproved:
		message = fmt.Sprintf("Your inventory request #%s has been approved.", requestID)
	case models.NotificationStatusRejected:
		message = fmt.Sprintf("Your inventory request #%s has been rejected.", requestID)
	case models.NotificationStatusProcessing:
		requestStatus = models.RequestStatusPending
		message = fmt.Sprintf("Your inventory request #%s is being processed by headquarters.", requestID)
	}

	notification, err := h.Store.ReviewRequest(c.Request.Context(), requestID, requestStatus, payload.Status, message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pending request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Feed.Publish(notification)
	h.Hub.PublishChange(notification.UserID, "notifications", socket.EventUpdate, notification)

	h.Log.Infow("request reviewed", "requestID", requestID, "status", payload.Status)
	c.JSON(http.StatusOK, gin.H{"status": "success", "notification": notification})
}
