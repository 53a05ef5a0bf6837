package models

import (
	"time"
)

// Notification statuses mirror the lifecycle of the request (or other entity)
// the notification reports on.
const (
	NotificationStatusPending    = "pending"
	NotificationStatusProcessing = "processing"
	NotificationStatusApproved   = "approved"
	NotificationStatusRejected   = "rejected"
)

// Notification is a user-facing event record. Only the Read flag is ever
// mutated by the recipient; status transitions come from the admin side.
type Notification struct {
	NotificationID string    `bson:"notificationID" json:"id"`
	UserID         string    `bson:"userID" json:"user_id"`
	RequestID      string    `bson:"requestID,omitempty" json:"request_id,omitempty"`
	Title          string    `bson:"title" json:"title"`
	Message        string    `bson:"message" json:"message"`
	Status         string    `bson:"status" json:"status"`
	Read           bool      `bson:"read" json:"read"`
	CreatedAt      time.Time `bson:"createdAt" json:"created_at"`
}
