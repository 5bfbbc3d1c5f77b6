package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spicerack/internal/middleware"
	"spicerack/internal/models"
)

const testJWTSecret = "test-secret"

// newTestDB returns a database handle backed by a lazy client. The driver
// does not dial until the first operation, so handler paths that fail before
// any storage call can run without a server.
func newTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:27017"))
	require.NoError(t, err)
	return client.Database("spicerack_test")
}

func validOrderRequest() createOrderRequest {
	return createOrderRequest{
		OrderItems: []orderLineRequest{
			{Product: primitive.NewObjectID().Hex(), Name: "Saffron", Quantity: 1, Image: "", Price: 89.99},
		},
		ShippingAddress: shippingAddressRequest{
			Address:    "1 Rd",
			City:       "X",
			PostalCode: "00000",
			Country:    "US",
		},
		TotalPrice: 89.99,
	}
}

func testRequester() *middleware.Identity {
	return &middleware.Identity{UserID: primitive.NewObjectID()}
}

func TestNewOrderEmptyCart(t *testing.T) {
	req := validOrderRequest()
	req.OrderItems = nil

	_, err := newOrder(req, testRequester())
	var apiErr apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errInvalidInput, apiErr.kind)
	assert.Equal(t, "no order items", apiErr.message)
}

func TestNewOrderIncompleteAddress(t *testing.T) {
	fields := []func(*shippingAddressRequest){
		func(a *shippingAddressRequest) { a.Address = "" },
		func(a *shippingAddressRequest) { a.City = "" },
		func(a *shippingAddressRequest) { a.PostalCode = "" },
		func(a *shippingAddressRequest) { a.Country = "" },
	}

	for _, clear := range fields {
		req := validOrderRequest()
		clear(&req.ShippingAddress)

		_, err := newOrder(req, testRequester())
		var apiErr apiError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errInvalidInput, apiErr.kind)
		assert.Equal(t, "please provide complete shipping address", apiErr.message)
	}
}

func TestNewOrderChecksCartBeforeCredential(t *testing.T) {
	// An empty cart from an anonymous caller fails on the cart, not on the
	// missing credential.
	req := validOrderRequest()
	req.OrderItems = nil

	_, err := newOrder(req, nil)
	var apiErr apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errInvalidInput, apiErr.kind)
}

func TestNewOrderUnauthenticated(t *testing.T) {
	_, err := newOrder(validOrderRequest(), nil)
	var apiErr apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errUnauthenticated, apiErr.kind)
}

func TestNewOrderMalformedLines(t *testing.T) {
	mutations := []func(*orderLineRequest){
		func(l *orderLineRequest) { l.Product = "" },
		func(l *orderLineRequest) { l.Product = "not-a-hex-id" },
		func(l *orderLineRequest) { l.Name = "" },
		func(l *orderLineRequest) { l.Quantity = 0 },
		func(l *orderLineRequest) { l.Quantity = -1 },
		func(l *orderLineRequest) { l.Price = -0.01 },
	}

	for _, mutate := range mutations {
		req := validOrderRequest()
		mutate(&req.OrderItems[0])

		_, err := newOrder(req, testRequester())
		var apiErr apiError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errInvalidInput, apiErr.kind)
		assert.Equal(t, "invalid order item structure", apiErr.message)
	}
}

func TestNewOrderSnapshot(t *testing.T) {
	user := testRequester()
	req := validOrderRequest()

	order, err := newOrder(req, user)
	require.NoError(t, err)

	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, "Saffron", order.OrderItems[0].Name)
	assert.Equal(t, 1, order.OrderItems[0].Quantity)
	assert.Equal(t, 89.99, order.OrderItems[0].Price)
	assert.Equal(t, "", order.OrderItems[0].Image)
	assert.Equal(t, 89.99, order.TotalPrice)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsDelivered)
	assert.Equal(t, user.UserID, order.UserID)
	assert.Equal(t, "1 Rd", order.ShippingAddress.Address)
}

func TestNewOrderDefaultsDeclaredTotal(t *testing.T) {
	req := validOrderRequest()
	req.TotalPrice = 0

	order, err := newOrder(req, testRequester())
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.TotalPrice)
}

func TestNewOrderLineCountMatchesInput(t *testing.T) {
	req := validOrderRequest()
	req.OrderItems = append(req.OrderItems, orderLineRequest{
		Product: primitive.NewObjectID().Hex(), Name: "Sumac", Quantity: 3, Price: 11.99,
	})

	order, err := newOrder(req, testRequester())
	require.NoError(t, err)
	assert.Len(t, order.OrderItems, len(req.OrderItems))
	assert.Equal(t, 3, order.OrderItems[1].Quantity)
}

func TestParseBearerRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()
	token, err := issueToken(userID, "john@example.com", true, testJWTSecret, time.Hour)
	require.NoError(t, err)

	user, err := middleware.ParseBearer("Bearer "+token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, user.UserID)
	assert.True(t, user.IsAdmin)

	_, err = middleware.ParseBearer("", testJWTSecret)
	assert.Error(t, err)

	_, err = middleware.ParseBearer("Bearer "+token, "other-secret")
	assert.Error(t, err)
}

func TestCanReadOrder(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	order := models.Order{UserID: owner}

	assert.True(t, canReadOrder(order, owner, false), "owner reads own order")
	assert.False(t, canReadOrder(order, stranger, false), "stranger is rejected")
	assert.True(t, canReadOrder(order, stranger, true), "admin reads any order")
}

func TestCreateOrderHTTPValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	r := gin.New()
	r.POST("/api/orders", CreateOrder(db, testJWTSecret))

	token, err := issueToken(primitive.NewObjectID(), "john@example.com", false, testJWTSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "malformed json",
			body:       "{",
			authHeader: "Bearer " + token,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty cart",
			body:       `{"orderItems":[],"shippingAddress":{"address":"1 Rd","city":"X","postalCode":"00000","country":"US"},"totalPrice":0}`,
			authHeader: "Bearer " + token,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "incomplete address",
			body:       `{"orderItems":[{"product":"` + primitive.NewObjectID().Hex() + `","name":"Saffron","quantity":1,"price":89.99}],"shippingAddress":{"address":"1 Rd","city":"","postalCode":"00000","country":"US"},"totalPrice":89.99}`,
			authHeader: "Bearer " + token,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing credential",
			body:       `{"orderItems":[{"product":"` + primitive.NewObjectID().Hex() + `","name":"Saffron","quantity":1,"price":89.99}],"shippingAddress":{"address":"1 Rd","city":"X","postalCode":"00000","country":"US"},"totalPrice":89.99}`,
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed line",
			body:       `{"orderItems":[{"product":"` + primitive.NewObjectID().Hex() + `","name":"","quantity":1,"price":89.99}],"shippingAddress":{"address":"1 Rd","city":"X","postalCode":"00000","country":"US"},"totalPrice":89.99}`,
			authHeader: "Bearer " + token,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body, "message")
		})
	}
}
