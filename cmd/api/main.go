package main

import (
	"context"

	"github.com/joho/godotenv"

	"branch-inventory-api-server/config"
	"branch-inventory-api-server/internal/api/routes"
	"branch-inventory-api-server/internal/auth"
	"branch-inventory-api-server/internal/cart"
	"branch-inventory-api-server/internal/database"
	"branch-inventory-api-server/internal/feed"
	"branch-inventory-api-server/internal/logger"
	"branch-inventory-api-server/internal/s3"
	"branch-inventory-api-server/internal/session"
	"branch-inventory-api-server/internal/socket"
)

func main() {
	godotenv.Load()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	auth.Init(cfg.JWT.Secret, cfg.JWT.Expiration)

	db, err := database.Connect(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Client().Disconnect(context.Background())

	if err := database.SeedAdmin(db, cfg.Seed, log); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}
	if err := database.SeedProducts(db, log); err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	store := database.NewStore(db)
	sessions := session.NewRegistry()
	carts := cart.NewStore()
	notificationFeed := feed.New(store)
	wsHub := socket.NewHub(log)

	// Signing out releases everything scoped to the session: its feed
	// channel, its cart, and (once the last session is gone) the user's
	// materialized inbox.
	sessions.OnChange(func(e session.Event) {
		if e.Type != session.SignedOut {
			return
		}
		wsHub.CloseSession(e.Session.User.UserID, e.Session.ID)
		carts.Drop(e.Session.ID)
		if !sessions.ActiveForUser(e.Session.User.UserID) {
			notificationFeed.Release(e.Session.User.UserID)
		}
	})

	var s3Uploader *s3.Uploader
	if cfg.S3.Bucket != "" {
		s3Uploader, err = s3.NewUploader(cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 uploader: %v", err)
		}
	} else {
		log.Info("S3 not configured, product image upload disabled")
	}

	router := routes.SetupRouter(cfg, store, sessions, carts, notificationFeed, wsHub, s3Uploader, log)

	log.Infof("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
