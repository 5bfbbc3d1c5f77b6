package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"spicerack/internal/models"
)

func TestAverageRatingEmpty(t *testing.T) {
	assert.Equal(t, 0.0, averageRating(nil))
	assert.Equal(t, 0.0, averageRating([]models.Review{}))
}

func TestAverageRatingFollowsReviewLifecycle(t *testing.T) {
	// No reviews -> 0; add 5 -> 5; add 3 -> 4; drop the 5 -> 3.
	reviews := []models.Review{}
	assert.Equal(t, 0.0, averageRating(reviews))

	five := models.Review{ID: primitive.NewObjectID(), Rating: 5}
	reviews = append(reviews, five)
	assert.Equal(t, 5.0, averageRating(reviews))

	reviews = append(reviews, models.Review{ID: primitive.NewObjectID(), Rating: 3})
	assert.Equal(t, 4.0, averageRating(reviews))

	remaining := make([]models.Review, 0, 1)
	for _, review := range reviews {
		if review.ID != five.ID {
			remaining = append(remaining, review)
		}
	}
	assert.Equal(t, 3.0, averageRating(remaining))
}

func TestValidateReviewInput(t *testing.T) {
	tests := []struct {
		name    string
		rating  int
		comment string
		wantErr bool
	}{
		{"valid", 4, "great spice", false},
		{"missing rating", 0, "great spice", true},
		{"empty comment", 4, "", true},
		{"blank comment", 4, "   ", true},
		{"rating too low", -1, "bad", true},
		{"rating too high", 6, "too good", true},
		{"boundary low", 1, "meh", false},
		{"boundary high", 5, "excellent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateReviewInput(tt.rating, tt.comment)
			if tt.wantErr {
				var apiErr apiError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, errInvalidInput, apiErr.kind)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateReviewHTTPValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	r := gin.New()
	// No auth middleware: the handler itself rejects a context without a
	// resolved subject after the input checks pass.
	r.POST("/api/products/:id/reviews", CreateReview(db))

	productID := primitive.NewObjectID().Hex()

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "malformed json",
			path:       "/api/products/" + productID + "/reviews",
			body:       "{",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing rating and comment",
			path:       "/api/products/" + productID + "/reviews",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "rating out of range",
			path:       "/api/products/" + productID + "/reviews",
			body:       `{"rating":9,"comment":"too hot"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad product id",
			path:       "/api/products/not-an-id/reviews",
			body:       `{"rating":5,"comment":"great"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no resolved subject",
			path:       "/api/products/" + productID + "/reviews",
			body:       `{"rating":5,"comment":"great"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
