// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/urbanthreads/storefront-backend/internal/cache"
	"github.com/urbanthreads/storefront-backend/internal/config"
	"github.com/urbanthreads/storefront-backend/internal/gateway"
	"github.com/urbanthreads/storefront-backend/internal/handlers"
	"github.com/urbanthreads/storefront-backend/internal/middleware"
	"github.com/urbanthreads/storefront-backend/internal/services"
	"github.com/urbanthreads/storefront-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Outbound clients
	httpClient := &http.Client{Timeout: time.Duration(cfg.Payment.ProviderTimeout) * time.Second}
	providerClient := gateway.NewClient(cfg.Payment, httpClient)
	currencyClient := gateway.NewCurrencyClient(cfg.Payment.CurrencyAPIURL, httpClient)
	cacheClient := cache.New(cfg.Redis)

	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	authService := services.NewAuthService(db, cfg)
	collectionService := services.NewCollectionService(db)
	catalogService := services.NewCatalogService(db, cacheClient, collectionService)
	cartService := services.NewCartService(db)
	orderService := services.NewOrderService(db)
	paymentService := services.NewPaymentService(db, cfg, providerClient, currencyClient, notificationService, orderService, cartService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, notificationService)
	productHandler := handlers.NewProductHandler(catalogService, storageService)
	collectionHandler := handlers.NewCollectionHandler(collectionService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService, notificationService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/profile", authHandler.GetProfile)
			users.PUT("/profile", authHandler.UpdateProfile)
		}

		// Catalog routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/featured", productHandler.GetFeaturedProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)
			products.POST("/:id/reviews", middleware.AuthRequired(), productHandler.CreateReview)
		}

		v1.GET("/categories", productHandler.ListCategories)

		// Collection routes
		collections := v1.Group("/collections")
		{
			collections.GET("", collectionHandler.ListCollections)
			collections.GET("/:slug", collectionHandler.GetCollection)
		}

		// Cart routes, keyed by owner and guarded against other users
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("/:userId", cartHandler.GetCart)
			cart.POST("/:userId/items", cartHandler.AddItems)
			cart.POST("/:userId/merge", cartHandler.MergeGuestCart)
			cart.PUT("/:userId/items", cartHandler.UpdateLine)
			cart.DELETE("/:userId/items/:productId", cartHandler.RemoveLine)
			cart.DELETE("/:userId", cartHandler.ClearCart)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", middleware.CheckoutRateLimit(), orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListMyOrders)
			orders.GET("/:id", orderHandler.GetOrder)
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			// The provider redirects browsers here without our auth token
			payments.GET("/callback", paymentHandler.PaymentCallback)

			protected := payments.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/initialize", middleware.CheckoutRateLimit(), paymentHandler.InitializePayment)
				protected.GET("/verify/:reference", paymentHandler.VerifyPayment)
				protected.POST("/intent", middleware.CheckoutRateLimit(), paymentHandler.CreatePaymentIntent)
				protected.POST("/confirm", paymentHandler.ConfirmCardPayment)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.POST("/products", productHandler.CreateProduct)
			admin.PUT("/products/:id", productHandler.UpdateProduct)
			admin.DELETE("/products/:id", productHandler.DeleteProduct)
			admin.POST("/products/images", middleware.UploadRateLimit(), productHandler.UploadProductImage)

			admin.POST("/categories", productHandler.CreateCategory)

			admin.POST("/collections", collectionHandler.CreateCollection)
			admin.PUT("/collections/:id", collectionHandler.UpdateCollection)
			admin.DELETE("/collections/:id", collectionHandler.DeleteCollection)
			admin.POST("/collections/:id/products/:productId", collectionHandler.AddProduct)
			admin.DELETE("/collections/:id/products/:productId", collectionHandler.RemoveProduct)

			admin.GET("/orders", orderHandler.ListOrders)
			admin.PUT("/orders/:id/deliver", orderHandler.MarkDelivered)

			admin.POST("/payments/refund", paymentHandler.RefundOrder)
		}
	}

	return r
}
