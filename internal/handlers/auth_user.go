package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"spicerack/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Register(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)
		password := strings.TrimSpace(req.Password)
		if email == "" || name == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "name, email and password are required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "password hash failed"})
			return
		}

		now := time.Now()
		user := models.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			IsAdmin:      false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if mongo.IsDuplicateKeyError(err) {
			log.Println("[AUTH] [ERROR] register email exists:", email)
			c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "db error"})
			return
		}

		id, _ := res.InsertedID.(primitive.ObjectID)
		token, err := issueToken(id, email, false, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] register token generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "token generation failed"})
			return
		}

		log.Println("[AUTH] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user": gin.H{
				"id":      id.Hex(),
				"name":    name,
				"email":   email,
				"isAdmin": false,
			},
		})
	}
}

func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			if err != mongo.ErrNoDocuments {
				log.Println("[AUTH] [ERROR] login user lookup failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": "db error"})
				return
			}
			log.Println("[AUTH] [ERROR] login unknown email")
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials for user")
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}

		token, err := issueToken(user.ID, user.Email, user.IsAdmin, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "token generation failed"})
			return
		}

		log.Println("[AUTH] [INFO] user login succeeded:", user.Email)
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":      user.ID.Hex(),
				"name":    user.Name,
				"email":   user.Email,
				"isAdmin": user.IsAdmin,
			},
		})
	}
}

func GetProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/profile"

		userID, ok := c.Get("userId")
		if !ok {
			respondError(c, route, unauthenticated("unauthorized"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, route, notFound("user not found"))
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

func UpdateProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/users/profile"

		userIDValue, ok := c.Get("userId")
		if !ok {
			respondError(c, route, unauthenticated("unauthorized"))
			return
		}
		userID := userIDValue.(primitive.ObjectID)

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, route, invalidInput("invalid body"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, route, notFound("user not found"))
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if name := strings.TrimSpace(req.Name); name != "" {
			update["name"] = name
		}
		if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
			update["email"] = email
		}
		if password := strings.TrimSpace(req.Password); password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				log.Println("[AUTH] [ERROR] profile password hash failed:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": "password hash failed"})
				return
			}
			update["passwordHash"] = string(hash)
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": update}); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
				return
			}
			respondError(c, route, err)
			return
		}

		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, route, err)
			return
		}

		log.Println("[AUTH] [INFO] profile updated:", user.Email)
		c.JSON(http.StatusOK, user)
	}
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "validation failed",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func issueToken(userID primitive.ObjectID, email string, isAdmin bool, secret string, accessTTL time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId":  userID.Hex(),
		"email":   email,
		"isAdmin": isAdmin,
		"exp":     time.Now().Add(accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
