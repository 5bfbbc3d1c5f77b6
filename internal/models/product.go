package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog item. ReviewIDs holds references to review documents
// in insertion order; Reviews, Rating and NumReviews are resolved on read and
// never stored.
type Product struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64              `bson:"price" json:"price"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Category    string               `bson:"category,omitempty" json:"category,omitempty"`
	StockCount  int                  `bson:"stockCount" json:"stockCount"`
	InStock     bool                 `bson:"-" json:"inStock"`
	ReviewIDs   []primitive.ObjectID `bson:"reviews" json:"-"`
	Reviews     []Review             `bson:"-" json:"reviews"`
	Rating      float64              `bson:"-" json:"rating"`
	NumReviews  int                  `bson:"-" json:"numReviews"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
}
