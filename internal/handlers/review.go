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

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func validateReviewInput(rating int, comment string) error {
	if rating == 0 || strings.TrimSpace(comment) == "" {
		return invalidInput("rating and comment are required")
	}
	if rating < 1 || rating > 5 {
		return invalidInput("rating must be between 1 and 5")
	}
	return nil
}

// averageRating is the derived product rating: the mean of the referenced
// reviews' ratings, 0 when there are none. Computed on every read, never
// stored.
func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// CreateReview persists a review and appends its id to the product's
// reference list inside one transaction. The unique (product, user) index
// answers the already-reviewed question; a concurrent duplicate fails at the
// insert, not at a pre-check.
func CreateReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/:id/reviews"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("product not found"))
			return
		}

		var req createReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, route, invalidInput("invalid request body"))
			return
		}

		if err := validateReviewInput(req.Rating, req.Comment); err != nil {
			respondError(c, route, err)
			return
		}

		userIDValue, ok := c.Get("userId")
		if !ok {
			respondError(c, route, unauthenticated("user not authenticated"))
			return
		}
		userID := userIDValue.(primitive.ObjectID)

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

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, route, unauthenticated("user not authenticated"))
			return
		}

		review := models.Review{
			ProductID: productID,
			UserID:    userID,
			Name:      user.Name,
			Rating:    req.Rating,
			Comment:   strings.TrimSpace(req.Comment),
			CreatedAt: time.Now(),
		}

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, route, err)
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			res, err := db.Collection("reviews").InsertOne(sessCtx, review)
			if err != nil {
				return nil, err
			}
			reviewID, _ := res.InsertedID.(primitive.ObjectID)
			review.ID = reviewID

			_, err = db.Collection("products").UpdateByID(sessCtx, productID, bson.M{
				"$push": bson.M{"reviews": reviewID},
			})
			return nil, err
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, route, conflict("product already reviewed"))
				return
			}
			respondError(c, route, err)
			return
		}

		log.Println("[REVIEW] [INFO] review created for product:", productID.Hex())
		c.JSON(http.StatusCreated, review)
	}
}

// DeleteReview removes the product's back-reference and the review record in
// one transaction; a crash between the two writes cannot strand a dangling
// reference.
func DeleteReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id/reviews/:reviewId"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("product not found"))
			return
		}

		reviewID, err := primitive.ObjectIDFromHex(c.Param("reviewId"))
		if err != nil {
			respondError(c, route, notFound("review not found"))
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

		count, err := db.Collection("reviews").CountDocuments(ctx, bson.M{"_id": reviewID})
		if err != nil {
			respondError(c, route, err)
			return
		}
		if count == 0 {
			respondError(c, route, notFound("review not found"))
			return
		}

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, route, err)
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			_, err := db.Collection("products").UpdateByID(sessCtx, productID, bson.M{
				"$pull": bson.M{"reviews": reviewID},
			})
			if err != nil {
				return nil, err
			}

			_, err = db.Collection("reviews").DeleteOne(sessCtx, bson.M{"_id": reviewID})
			return nil, err
		})
		if err != nil {
			respondError(c, route, err)
			return
		}

		log.Println("[REVIEW] [INFO] review deleted:", reviewID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "review removed"})
	}
}
