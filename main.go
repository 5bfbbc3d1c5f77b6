package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"spicerack/internal/config"
	"spicerack/internal/database"
	"spicerack/internal/handlers"
	"spicerack/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureReviewIndexes(db); err != nil {
		log.Printf("review index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	r := gin.Default()

	r.POST("/api/users/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/api/users/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	users := r.Group("/api/users")
	users.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		users.GET("/profile", handlers.GetProfile(db))
		users.PUT("/profile", handlers.UpdateProfile(db))
	}

	r.GET("/api/products", handlers.GetProducts(db))
	r.GET("/api/products/:id", handlers.GetProductByID(db))

	r.POST("/api/products/:id/reviews", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.CreateReview(db))

	// CreateOrder validates the body before the credential, so it resolves
	// the bearer token itself instead of sitting behind UserAuth.
	r.POST("/api/orders", handlers.CreateOrder(db, config.AppEnv.JWTSecret))

	orders := r.Group("/api/orders")
	orders.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		orders.GET("/myorders", handlers.GetMyOrders(db))
		orders.GET("/:id", handlers.GetOrderByID(db))
	}

	admin := r.Group("/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/orders", handlers.GetOrders(db))
		admin.PUT("/orders/:id/deliver", handlers.MarkDelivered(db))

		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))
		admin.DELETE("/products/:id/reviews/:reviewId", handlers.DeleteReview(db))

		admin.GET("/users", handlers.GetUsers(db))
		admin.DELETE("/users/:id", handlers.DeleteUser(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
