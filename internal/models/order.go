package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is an immutable snapshot of a purchased item at order time,
// deliberately decoupled from the live product document.
type OrderItem struct {
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Image     string             `bson:"image" json:"image"`
	Price     float64            `bson:"price" json:"price"`
	ProductID primitive.ObjectID `bson:"product" json:"product"`
}

// ShippingAddress holds the four required destination fields.
type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// OrderUser carries the owner's public identity on reads. Never includes the
// credential hash.
type OrderUser struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// Order defines the persisted order document. Owned by exactly one user,
// immutable after creation except for the delivery toggle.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user" json:"userId"`
	User            *OrderUser         `bson:"-" json:"user,omitempty"`
	OrderItems      []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
