package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"spicerack/internal/models"
)

// GetUsers lists every user account. Credential hashes never serialize
// (json:"-" on the model).
func GetUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("users").Find(ctx, bson.M{})
		if err != nil {
			respondError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, users)
	}
}

func DeleteUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/users/:id"

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, route, notFound("user not found"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("users").DeleteOne(ctx, bson.M{"_id": userID})
		if err != nil {
			respondError(c, route, err)
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, route, notFound("user not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "user removed"})
	}
}
