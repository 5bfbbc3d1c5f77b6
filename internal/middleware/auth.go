package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the subject resolved from a bearer credential.
type Identity struct {
	UserID  primitive.ObjectID
	IsAdmin bool
}

// ParseBearer validates an Authorization header value and extracts the
// subject identity. Handlers that cannot sit behind the guards (CreateOrder
// checks its body before the credential) resolve the token through this too.
func ParseBearer(header, secret string) (Identity, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return Identity{}, errors.New("missing token")
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, errors.New("invalid token")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errors.New("unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("unauthorized")
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return Identity{}, errors.New("unauthorized")
	}

	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return Identity{}, errors.New("unauthorized")
	}

	isAdmin, _ := claims["isAdmin"].(bool)
	return Identity{UserID: userID, IsAdmin: isAdmin}, nil
}

// UserAuth validates bearer tokens and injects userId and isAdmin into the
// gin context.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := ParseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}

		c.Set("userId", ident.UserID)
		c.Set("isAdmin", ident.IsAdmin)
		c.Next()
	}
}

// AdminAuth layers the administrative capability check on top of token
// validation.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := ParseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}

		if !ident.IsAdmin {
			log.Println("[AUTH] [ERROR] admin capability missing")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
			return
		}

		c.Set("userId", ident.UserID)
		c.Set("isAdmin", true)
		c.Next()
	}
}
