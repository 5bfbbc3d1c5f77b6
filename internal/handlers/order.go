package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spicerack/internal/middleware"
	"spicerack/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type orderLineRequest struct {
	Product  string  `json:"product"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
}

type shippingAddressRequest struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type createOrderRequest struct {
	OrderItems      []orderLineRequest     `json:"orderItems"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress"`
	TotalPrice      float64                `json:"totalPrice"`
}

/* =========================
   VALIDATION / BUILD
========================= */

// newOrder validates a checkout submission and assembles the order document.
// The checks run in a fixed order, each a distinct failure: empty cart,
// incomplete address, missing credential, malformed line. A single bad line
// rejects the whole request. The declared total is kept as submitted.
func newOrder(req createOrderRequest, user *middleware.Identity) (models.Order, error) {
	if len(req.OrderItems) == 0 {
		return models.Order{}, invalidInput("no order items")
	}

	addr := req.ShippingAddress
	if strings.TrimSpace(addr.Address) == "" ||
		strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.PostalCode) == "" ||
		strings.TrimSpace(addr.Country) == "" {
		return models.Order{}, invalidInput("please provide complete shipping address")
	}

	if user == nil {
		return models.Order{}, unauthenticated("user not authenticated")
	}

	items := make([]models.OrderItem, 0, len(req.OrderItems))
	for _, line := range req.OrderItems {
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(line.Product))
		if err != nil {
			return models.Order{}, invalidInput("invalid order item structure")
		}
		if strings.TrimSpace(line.Name) == "" || line.Quantity < 1 || line.Price < 0 {
			return models.Order{}, invalidInput("invalid order item structure")
		}

		items = append(items, models.OrderItem{
			Name:      strings.TrimSpace(line.Name),
			Quantity:  line.Quantity,
			Image:     line.Image,
			Price:     line.Price,
			ProductID: productID,
		})
	}

	return models.Order{
		UserID:          user.UserID,
		OrderItems:      items,
		ShippingAddress: models.ShippingAddress(addr),
		TotalPrice:      req.TotalPrice,
		IsPaid:          false,
		IsDelivered:     false,
		CreatedAt:       time.Now(),
	}, nil
}

// canReadOrder decides the owner-or-admin read rule for a single order.
func canReadOrder(order models.Order, userID primitive.ObjectID, isAdmin bool) bool {
	return order.UserID == userID || isAdmin
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(db *mongo.Database, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, route, invalidInput("invalid request body"))
			return
		}

		// Resolved inline rather than by the auth middleware: the cart and
		// address checks come before the credential check.
		var user *middleware.Identity
		if ident, err := middleware.ParseBearer(c.GetHeader("Authorization"), jwtSecret); err != nil {
			log.Println("[ORDER] [ERROR] token validation failed:", err)
		} else {
			user = &ident
		}

		order, err := newOrder(req, user)
		if err != nil {
			respondError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("orders").InsertOne(ctx, order)
		if err != nil {
			respondError(c, route, err)
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}

		log.Println("[ORDER] [INFO] order created for user:", order.UserID.Hex())
		c.JSON(http.StatusCreated, order)
	}
}

/* =========================
   READS
========================= */

func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/myorders"

		userID, ok := c.Get("userId")
		if !ok {
			respondError(c, route, unauthenticated("user not authenticated"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, bson.M{"user": userID})
		if err != nil {
			respondError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

// GetOrderByID returns an order to its owner or to an administrator, with
// the owner's public identity resolved.
func GetOrderByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("order not found"))
			return
		}

		userIDValue, ok := c.Get("userId")
		if !ok {
			respondError(c, route, unauthenticated("user not authenticated"))
			return
		}
		userID := userIDValue.(primitive.ObjectID)
		isAdminValue, _ := c.Get("isAdmin")
		isAdmin, _ := isAdminValue.(bool)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, route, notFound("order not found"))
				return
			}
			respondError(c, route, err)
			return
		}

		if !canReadOrder(order, userID, isAdmin) {
			respondError(c, route, unauthorized("not authorized"))
			return
		}

		var owner models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&owner); err == nil {
			order.User = &models.OrderUser{ID: owner.ID, Name: owner.Name, Email: owner.Email}
		}

		c.JSON(http.StatusOK, order)
	}
}

// GetOrders is the administrative listing with owner identities attached.
func GetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, bson.M{})
		if err != nil {
			respondError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, route, err)
			return
		}

		if err := populateOrderUsers(ctx, db, orders); err != nil {
			respondError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func populateOrderUsers(ctx context.Context, db *mongo.Database, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.UserID)
	}

	cursor, err := db.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return err
	}

	userByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, user := range users {
		userByID[user.ID] = user
	}

	for i := range orders {
		if user, ok := userByID[orders[i].UserID]; ok {
			orders[i].User = &models.OrderUser{ID: user.ID, Name: user.Name, Email: user.Email}
		}
	}

	return nil
}

/* =========================
   DELIVERY TOGGLE
========================= */

// MarkDelivered flips isDelivered to true and stamps deliveredAt. Repeated
// calls overwrite the timestamp; nothing ever flips the flag back.
func MarkDelivered(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/deliver"

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("order not found"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{"_id": orderID},
			bson.M{"$set": bson.M{"isDelivered": true, "deliveredAt": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, route, notFound("order not found"))
				return
			}
			respondError(c, route, err)
			return
		}

		log.Println("[ORDER] [INFO] order marked delivered:", orderID.Hex())
		c.JSON(http.StatusOK, order)
	}
}
