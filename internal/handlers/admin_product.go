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

	"spicerack/internal/models"
)

type createProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	StockCount  int     `json:"stockCount"`
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Image       *string  `json:"image"`
	Category    *string  `json:"category"`
	StockCount  *int     `json:"stockCount"`
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.Price < 0 {
			respondError(c, route, invalidInput("price must not be negative"))
			return
		}
		if req.StockCount < 0 {
			respondError(c, route, invalidInput("stockCount must not be negative"))
			return
		}

		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			Price:       req.Price,
			Image:       strings.TrimSpace(req.Image),
			Category:    strings.TrimSpace(req.Category),
			StockCount:  req.StockCount,
			ReviewIDs:   []primitive.ObjectID{},
			CreatedAt:   time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondError(c, route, err)
			return
		}

		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}
		product.InStock = product.StockCount > 0
		product.Reviews = []models.Review{}

		log.Println("[PRODUCT] [INFO] product created:", product.Name)
		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("product not found"))
			return
		}

		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, route, invalidInput("invalid body"))
			return
		}

		update := bson.M{}
		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				respondError(c, route, invalidInput("name must not be empty"))
				return
			}
			update["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Price != nil {
			if *req.Price < 0 {
				respondError(c, route, invalidInput("price must not be negative"))
				return
			}
			update["price"] = *req.Price
		}
		if req.Image != nil {
			update["image"] = strings.TrimSpace(*req.Image)
		}
		if req.Category != nil {
			update["category"] = strings.TrimSpace(*req.Category)
		}
		if req.StockCount != nil {
			if *req.StockCount < 0 {
				respondError(c, route, invalidInput("stockCount must not be negative"))
				return
			}
			update["stockCount"] = *req.StockCount
		}

		if len(update) == 0 {
			respondError(c, route, invalidInput("no fields to update"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").UpdateByID(ctx, productID, bson.M{"$set": update})
		if err != nil {
			respondError(c, route, err)
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, route, notFound("product not found"))
			return
		}

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			respondError(c, route, err)
			return
		}

		products := []models.Product{product}
		if err := populateReviews(ctx, db, products); err != nil {
			respondError(c, route, err)
			return
		}

		log.Println("[PRODUCT] [INFO] product updated:", productID.Hex())
		c.JSON(http.StatusOK, products[0])
	}
}

// DeleteProduct removes the product and its reviews in one transaction so no
// review is left pointing at a missing product.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("product not found"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, route, err)
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			res, err := db.Collection("products").DeleteOne(sessCtx, bson.M{"_id": productID})
			if err != nil {
				return nil, err
			}
			if res.DeletedCount == 0 {
				return nil, notFound("product not found")
			}

			if _, err := db.Collection("reviews").DeleteMany(sessCtx, bson.M{"product": productID}); err != nil {
				return nil, err
			}
			return nil, nil
		})
		if err != nil {
			respondError(c, route, err)
			return
		}

		log.Println("[PRODUCT] [INFO] product deleted:", productID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "product removed"})
	}
}
