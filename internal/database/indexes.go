package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

// EnsureReviewIndexes creates the unique compound (product, user) index.
// Duplicate review submissions fail at the store with a duplicate-key error
// instead of slipping past a read-then-write existence check.
func EnsureReviewIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("reviews").Indexes()

	productUserIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "product", Value: 1},
			{Key: "user", Value: 1},
		},
		Options: options.Index().
			SetName("product_user_unique").
			SetUnique(true),
	}

	log.Println("EnsureReviewIndexes: creating product_user_unique index")
	_, err := indexes.CreateOne(ctx, productUserIndex)
	if err != nil {
		log.Println("EnsureReviewIndexes: product_user index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetName("user_index"),
	}

	log.Println("EnsureOrderIndexes: creating user_index index")
	_, err := indexes.CreateOne(ctx, userIndex)
	if err != nil {
		log.Println("EnsureOrderIndexes: user index error:", err)
		return err
	}
	return nil
}
