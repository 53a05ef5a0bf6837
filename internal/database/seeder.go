package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"branch-inventory-api-server/config"
	"branch-inventory-api-server/internal/auth"
	"branch-inventory-api-server/internal/models"
)

// SeedAdmin creates the initial HQ admin account and profile if none exists.
func SeedAdmin(db *mongo.Database, cfg config.SeedConfig, log *zap.SugaredLogger) error {
	email := cfg.AdminEmail
	if email == "" {
		email = "admin@example.com"
	}
	password := cfg.AdminPassword
	if password == "" {
		password = "changeme"
	}

	accounts := db.Collection("accounts")
	count, err := accounts.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info("admin account already exists, seeding skipped")
		return nil
	}

	log.Info("admin account not found, seeding")
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	userID := uuid.New().String()
	now := time.Now()

	_, err = accounts.InsertOne(context.Background(), Account{
		UserID:    userID,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("users").InsertOne(context.Background(), models.User{
		UserID:    userID,
		Email:     email,
		Role:      models.RoleHQAdmin,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}

	log.Infow("admin account seeded", "email", email)
	return nil
}

// SeedProducts loads a starter catalog into an empty products collection.
func SeedProducts(db *mongo.Database, log *zap.SugaredLogger) error {
	products := db.Collection("products")
	count, err := products.CountDocuments(context.Background(), bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Info("products collection empty, seeding starter catalog")
	starter := []interface{}{
		models.Product{
			ProductID:       uuid.New().String(),
			Name:            "Office Paper",
			Description:     "High-quality A4 printer paper, 500 sheets per ream",
			Price:           4.99,
			StockLevel:      150,
			MaxRequestLimit: 50,
			Unit:            "reams",
		},
		models.Product{
			ProductID:       uuid.New().String(),
			Name:            "Ballpoint Pens",
			Description:     "Medium point blue ink pens, pack of 12",
			Price:           3.99,
			StockLevel:      75,
			MaxRequestLimit: 30,
			Unit:            "packs",
		},
		models.Product{
			ProductID:       uuid.New().String(),
			Name:            "Sticky Notes",
			Description:     "3x3 inch yellow sticky notes, pack of 100",
			Price:           2.49,
			StockLevel:      25,
			MaxRequestLimit: 20,
			Unit:            "packs",
		},
		models.Product{
			ProductID:       uuid.New().String(),
			Name:            "Stapler",
			Description:     "Desktop stapler with 20-sheet capacity",
			Price:           8.99,
			StockLevel:      45,
			MaxRequestLimit: 10,
			Unit:            "units",
		},
	}

	_, err = products.InsertMany(context.Background(), starter)
	return err
}
