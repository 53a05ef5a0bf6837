package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request statuses. A request is created PENDING and only moves through an
// admin review; the requester is informed via the notification feed.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// RequestItem is one line of a submitted cart.
type RequestItem struct {
	ProductID string `bson:"productID" json:"product_id"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// InventoryRequest is a persisted batch of requested items from one user.
// Line items are embedded so the request and its items are written as one
// document.
type InventoryRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RequestID string             `bson:"requestID" json:"id"`
	UserID    string             `bson:"userID" json:"user_id"`
	Items     []RequestItem      `bson:"items" json:"items"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
