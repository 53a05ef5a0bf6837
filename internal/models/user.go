package models

import "time"

// Roles a profile can carry. Branch managers browse the catalog and submit
// restock requests; HQ admins review them and adjust stock.
const (
	RoleBranchManager = "branch_manager"
	RoleHQAdmin       = "hq_admin"
)

// User is the profile row that must exist for every identity. UserID is the
// identity provider's id, not the Mongo document id; every authenticated
// session maps to exactly one profile keyed by it.
type User struct {
	UserID    string    `bson:"userID" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}
