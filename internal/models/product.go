package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. StockLevel is kept >= 0 by convention only;
// the request flow never writes it, and the inventory adjuster logs audit
// rows instead of overwriting it.
type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductID       string             `bson:"productID" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description" json:"description"`
	Image           string             `bson:"image" json:"image"`
	Price           float64            `bson:"price" json:"price"`
	StockLevel      int                `bson:"stockLevel" json:"stock_level"`
	MaxRequestLimit int                `bson:"maxRequestLimit" json:"max_request_limit"`
	Unit            string             `bson:"unit" json:"unit"`
}
