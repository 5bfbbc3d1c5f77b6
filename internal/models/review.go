package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review belongs to exactly one product and one user. Name is the reviewer's
// display name captured at creation time. Uniqueness of (product, user) is
// enforced by a compound index, not by this type.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
