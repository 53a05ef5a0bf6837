package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"branch-inventory-api-server/config"
	"branch-inventory-api-server/internal/api/handlers"
	"branch-inventory-api-server/internal/api/middleware"
	"branch-inventory-api-server/internal/cart"
	"branch-inventory-api-server/internal/database"
	"branch-inventory-api-server/internal/feed"
	"branch-inventory-api-server/internal/models"
	"branch-inventory-api-server/internal/s3"
	"branch-inventory-api-server/internal/session"
	"branch-inventory-api-server/internal/socket"
)

// SetupRouter wires the handlers and route guards.
func SetupRouter(
	cfg config.Config,
	store *database.Store,
	sessions *session.Registry,
	carts *cart.Store,
	notificationFeed *feed.Feed,
	wsHub *socket.Hub,
	s3Uploader *s3.Uploader,
	log *zap.SugaredLogger,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	authHandler := &handlers.AuthHandler{Store: store, Sessions: sessions, Log: log}
	productHandler := &handlers.ProductHandler{Store: store, Uploader: s3Uploader, Log: log}
	cartHandler := &handlers.CartHandler{Carts: carts, Store: store}
	requestHandler := &handlers.RequestHandler{Store: store, Carts: carts, Feed: notificationFeed, Hub: wsHub, Log: log}
	notificationHandler := &handlers.NotificationHandler{Feed: notificationFeed}
	inventoryHandler := &handlers.InventoryHandler{Store: store, Catalog: store, Log: log}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, Sessions: sessions, Log: log}

	apiV1 := router.Group("/api/v1")
	{
		// Change-feed subscription; authenticates via query token.
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Everything below requires a live session.
		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(sessions))
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/me", authHandler.Me)

			products := protected.Group("/products")
			{
				products.GET("/", productHandler.GetAllProducts)
				products.GET("/:id", productHandler.GetProductByID)
			}

			cartRoutes := protected.Group("/cart")
			cartRoutes.Use(middleware.Authorize(models.RoleBranchManager))
			{
				cartRoutes.GET("/", cartHandler.GetCart)
				cartRoutes.POST("/items", cartHandler.ChangeCartItem)
				cartRoutes.DELETE("/", cartHandler.ClearCart)
			}

			requests := protected.Group("/requests")
			{
				requests.POST("/", middleware.Authorize(models.RoleBranchManager), requestHandler.SubmitRequest)
				requests.GET("/my", requestHandler.GetMyRequests)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("/", notificationHandler.GetMyNotifications)
				notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
				notifications.PUT("/:id/read", notificationHandler.MarkRead)
			}

			// HQ admin surface.
			admin := protected.Group("/admin")
			admin.Use(middleware.Authorize(models.RoleHQAdmin))
			{
				admin.GET("/requests", requestHandler.GetAllRequests)
				admin.PUT("/requests/:id/review", requestHandler.ReviewRequest)

				admin.POST("/products", productHandler.CreateProduct)
				admin.PUT("/products/:id", productHandler.UpdateProduct)
				admin.POST("/products/:id/image", productHandler.UploadProductImage)

				admin.POST("/inventory", inventoryHandler.AdjustInventory)
				admin.GET("/inventory/:id", inventoryHandler.GetAdjustments)
			}
		}
	}

	return router
}
