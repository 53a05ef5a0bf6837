package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"branch-inventory-api-server/internal/cart"
	"branch-inventory-api-server/internal/feed"
	"branch-inventory-api-server/internal/models"
	"branch-inventory-api-server/internal/socket"
)

// ── In-memory RequestStore stub ──────────────────────────────────────────────

type stubRequestStore struct {
	submitErr     error
	requests      []models.InventoryRequest
	notifications []models.Notification
	reviewed      models.Notification
	reviewErr     error
}

func (s *stubRequestStore) SubmitRequest(_ context.Context, request models.InventoryRequest, notification models.Notification) error {
	if s.submitErr != nil {
		return s.submitErr
	}
	s.requests = append(s.requests, request)
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *stubRequestStore) RequestsForUser(_ context.Context, userID, status string) ([]models.InventoryRequest, error) {
	return s.requests, nil
}

func (s *stubRequestStore) AllRequests(_ context.Context, status string) ([]models.InventoryRequest, error) {
	return s.requests, nil
}

func (s *stubRequestStore) ReviewRequest(_ context.Context, requestID, requestStatus, notificationStatus, message string) (models.Notification, error) {
	if s.reviewErr != nil {
		return models.Notification{}, s.reviewErr
	}
	s.reviewed = models.Notification{
		NotificationID: "n1",
		UserID:         "u1",
		RequestID:      requestID,
		Status:         notificationStatus,
		Message:        message,
	}
	return s.reviewed, nil
}

// stubFeedStore keeps feed.New happy without a database.
type stubFeedStore struct{}

func (stubFeedStore) NotificationsForUser(context.Context, string) ([]models.Notification, error) {
	return nil, nil
}

func (stubFeedStore) MarkNotificationRead(context.Context, string, string) error { return nil }

func newRequestHandler(store *stubRequestStore) (*RequestHandler, *cart.Store) {
	carts := cart.NewStore()
	return &RequestHandler{
		Store: store,
		Carts: carts,
		Feed:  feed.New(stubFeedStore{}),
		Hub:   socket.NewHub(zap.NewNop().Sugar()),
		Log:   zap.NewNop().Sugar(),
	}, carts
}

func submitContext(w *httptest.ResponseRecorder, body string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/requests/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", "u1")
	c.Set("session_id", "sess-1")
	return c
}

func TestSubmitRequestPersistsCartAsRequestAndNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubRequestStore{}
	h, carts := newRequestHandler(store)

	// 2x Product A (limit 50) and 1x Product B.
	sessionCart := carts.Get("sess-1")
	sessionCart.Increment("prod-a", 50)
	sessionCart.Increment("prod-a", 50)
	sessionCart.Increment("prod-b", 30)

	w := httptest.NewRecorder()
	h.SubmitRequest(submitContext(w, ""))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.requests, 1)
	require.Len(t, store.notifications, 1)

	request := store.requests[0]
	assert.Equal(t, "u1", request.UserID)
	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.Equal(t, []models.RequestItem{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 1},
	}, request.Items)

	notification := store.notifications[0]
	assert.Equal(t, models.NotificationStatusPending, notification.Status)
	assert.Contains(t, notification.Message, request.RequestID)
	assert.False(t, notification.Read)

	// Success clears the cart.
	assert.Empty(t, sessionCart.Lines())
}

func TestSubmitRequestRejectsEmptyCart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubRequestStore{}
	h, _ := newRequestHandler(store)

	w := httptest.NewRecorder()
	h.SubmitRequest(submitContext(w, ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.requests)
}

func TestSubmitRequestFailureLeavesCartUntouched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubRequestStore{submitErr: errors.New("write conflict")}
	h, carts := newRequestHandler(store)

	sessionCart := carts.Get("sess-1")
	sessionCart.Increment("prod-a", 50)

	w := httptest.NewRecorder()
	h.SubmitRequest(submitContext(w, ""))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "write conflict")

	assert.Equal(t, []cart.Line{{ProductID: "prod-a", Quantity: 1}}, sessionCart.Lines())
}

func TestReviewRequestUpdatesNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubRequestStore{}
	h, _ := newRequestHandler(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/admin/requests/REQ-1/review", strings.NewReader(`{"status":"approved"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "REQ-1"}}
	h.ReviewRequest(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.NotificationStatusApproved, store.reviewed.Status)
	assert.Contains(t, store.reviewed.Message, "REQ-1")
	assert.Contains(t, store.reviewed.Message, "approved")
}

func TestReviewRequestNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubRequestStore{reviewErr: mongo.ErrNoDocuments}
	h, _ := newRequestHandler(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/admin/requests/REQ-404/review", strings.NewReader(`{"status":"rejected"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "REQ-404"}}
	h.ReviewRequest(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
