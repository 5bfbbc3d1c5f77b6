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

	"spicerack/internal/models"
)

/*
GET /api/products
- keyword + category filters optional
- pagination optional: applied only when page + limit are both present
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			log.Printf("[%s] database unavailable: %v", route, err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "database unavailable"})
			return
		}

		filter := bson.M{}

		if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
			filter["name"] = bson.M{"$regex": keyword, "$options": "i"}
		}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		pageStr := c.Query("page")
		limitStr := c.Query("limit")

		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondError(c, route, invalidInput("invalid pagination params"))
				return
			}

			findOptions.
				SetSkip((page - 1) * limit).
				SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondError(c, route, err)
			return
		}

		if err := populateReviews(ctx, db, products); err != nil {
			respondError(c, route, err)
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, products)
	}
}

func GetProductByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("product not found"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, route, notFound("product not found"))
				return
			}
			respondError(c, route, err)
			return
		}

		products := []models.Product{product}
		if err := populateReviews(ctx, db, products); err != nil {
			respondError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, products[0])
	}
}

// populateReviews resolves every product's review references into full
// documents with one query, preserving each product's reference-list order,
// and fills in the derived rating fields.
func populateReviews(ctx context.Context, db *mongo.Database, products []models.Product) error {
	ids := make([]primitive.ObjectID, 0)
	for i := range products {
		products[i].InStock = products[i].StockCount > 0
		ids = append(ids, products[i].ReviewIDs...)
	}

	reviewByID := make(map[primitive.ObjectID]models.Review, len(ids))
	if len(ids) > 0 {
		cursor, err := db.Collection("reviews").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		var reviews []models.Review
		if err := cursor.All(ctx, &reviews); err != nil {
			return err
		}
		for _, review := range reviews {
			reviewByID[review.ID] = review
		}
	}

	for i := range products {
		ordered := make([]models.Review, 0, len(products[i].ReviewIDs))
		for _, id := range products[i].ReviewIDs {
			if review, ok := reviewByID[id]; ok {
				ordered = append(ordered, review)
			}
		}
		products[i].Reviews = ordered
		products[i].Rating = averageRating(ordered)
		products[i].NumReviews = len(ordered)
	}

	return nil
}
