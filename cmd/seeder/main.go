package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"spicerack/internal/config"
	"spicerack/internal/database"
	"spicerack/internal/models"
)

type seedUser struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

var sampleUsers = []seedUser{
	{Name: "Admin User", Email: "admin@spicerack.com", Password: "admin123", IsAdmin: true},
	{Name: "John Doe", Email: "john@example.com", Password: "password123", IsAdmin: false},
}

var sampleProducts = []models.Product{
	{
		Name:        "Smoked Paprika",
		Description: "Rich, smoky flavor with a deep red color. Perfect for adding depth to meats, stews, and roasted vegetables. Sourced from premium Spanish peppers.",
		Price:       8.99,
		Image:       "https://picsum.photos/500/500?random=1",
		Category:    "Spicy",
		StockCount:  50,
	},
	{
		Name:        "Ceylon Cinnamon",
		Description: "True cinnamon with a delicate, sweet flavor. Unlike cassia, this has a lighter, more complex taste. Perfect for baking and desserts.",
		Price:       12.99,
		Image:       "https://picsum.photos/500/500?random=2",
		Category:    "Sweet",
		StockCount:  35,
	},
	{
		Name:        "Turmeric Root Powder",
		Description: "Bright golden spice with earthy, slightly bitter flavor. Known for its health benefits and vibrant color. Essential for curries and golden milk.",
		Price:       9.99,
		Image:       "https://picsum.photos/500/500?random=3",
		Category:    "Aromatic",
		StockCount:  60,
	},
	{
		Name:        "Sumac",
		Description: "Tangy, lemony spice with a deep red-purple color. Adds a bright, citrusy note to Middle Eastern dishes, salads, and grilled meats.",
		Price:       11.99,
		Image:       "https://picsum.photos/500/500?random=4",
		Category:    "Tangy",
		StockCount:  25,
	},
	{
		Name:        "Cardamom Pods",
		Description: "Highly aromatic pods with a complex flavor profile - sweet, spicy, and slightly citrusy. Essential for Indian and Middle Eastern cuisine.",
		Price:       15.99,
		Image:       "https://picsum.photos/500/500?random=5",
		Category:    "Aromatic",
		StockCount:  40,
	},
	{
		Name:        "Saffron Threads",
		Description: "The world's most expensive spice. Imparts a golden color and unique floral, honey-like flavor. Use sparingly in rice, desserts, and sauces.",
		Price:       89.99,
		Image:       "https://picsum.photos/500/500?random=6",
		Category:    "Premium",
		StockCount:  15,
	},
	{
		Name:        "Za'atar Blend",
		Description: "Traditional Middle Eastern spice blend of thyme, sumac, and sesame seeds. Perfect for seasoning bread, meats, and vegetables.",
		Price:       10.99,
		Image:       "https://picsum.photos/500/500?random=7",
		Category:    "Blend",
		StockCount:  45,
	},
	{
		Name:        "Black Peppercorns",
		Description: "Premium whole black peppercorns with intense, sharp flavor. Grind fresh for maximum aroma and taste. Essential kitchen staple.",
		Price:       7.99,
		Image:       "https://picsum.photos/500/500?random=8",
		Category:    "Spicy",
		StockCount:  80,
	},
	{
		Name:        "Star Anise",
		Description: "Distinctive star-shaped pods with a strong licorice flavor. Key ingredient in Chinese five-spice powder and pho broth.",
		Price:       9.99,
		Image:       "https://picsum.photos/500/500?random=9",
		Category:    "Aromatic",
		StockCount:  30,
	},
	{
		Name:        "Chipotle Powder",
		Description: "Smoked and dried jalapeño peppers ground into a fine powder. Adds smoky heat to Mexican dishes, marinades, and rubs.",
		Price:       8.99,
		Image:       "https://picsum.photos/500/500?random=10",
		Category:    "Spicy",
		StockCount:  55,
	},
}

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("clearing existing data")
	if _, err := db.Collection("products").DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatal(err)
	}
	if _, err := db.Collection("users").DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatal(err)
	}
	if _, err := db.Collection("reviews").DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatal(err)
	}

	now := time.Now()

	products := make([]interface{}, 0, len(sampleProducts))
	for _, product := range sampleProducts {
		product.ReviewIDs = []primitive.ObjectID{}
		product.CreatedAt = now
		products = append(products, product)
	}
	if _, err := db.Collection("products").InsertMany(ctx, products); err != nil {
		log.Fatal(err)
	}
	log.Printf("%d products inserted", len(products))

	users := make([]interface{}, 0, len(sampleUsers))
	for _, user := range sampleUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal(err)
		}
		users = append(users, models.User{
			Name:         user.Name,
			Email:        user.Email,
			PasswordHash: string(hash),
			IsAdmin:      user.IsAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if _, err := db.Collection("users").InsertMany(ctx, users); err != nil {
		log.Fatal(err)
	}
	log.Printf("%d users inserted", len(users))

	log.Println("seeding completed")
}
