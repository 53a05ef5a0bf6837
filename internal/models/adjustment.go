package models

import "time"

// Adjustment types accepted by the inventory adjuster.
const (
	AdjustmentAdd    = "add"
	AdjustmentRemove = "remove"
	AdjustmentAdjust = "adjust"
)

// InventoryAdjustment is one row of the append-only audit log. ChangeAmount
// is signed: "remove" entries are negated before logging. Rows are never
// updated or deleted.
type InventoryAdjustment struct {
	ProductID    string    `bson:"productID" json:"product_id"`
	UserID       string    `bson:"userID" json:"user_id"`
	ChangeAmount int       `bson:"changeAmount" json:"change_amount"`
	Type         string    `bson:"type" json:"type"`
	Notes        string    `bson:"notes" json:"notes"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
}
