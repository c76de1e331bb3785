package main

import (
	"context"                           // context package is needed for Redis operations
	"log"                               // log package is needed for logging
	"thrift_market/internal/api"        // Custom package for API handlers
	"thrift_market/internal/chat"       // Custom package for the chat relay
	"thrift_market/internal/config"     // Custom package for configuration
	"thrift_market/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Chat hub fans persisted messages out to live connections
	hub := chat.NewHub()
	go hub.Run()

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	r.Use(middleware.RequestIDMiddleware()) // Tag every request with an ID

	// Auth routes
	r.POST("/api/auth/register", api.RegisterHandler(db, cfg.JWTSecret)) // Registration endpoint
	r.POST("/api/auth/login", api.LoginHandler(db, cfg.JWTSecret))       // Login endpoint

	// Public product routes
	r.GET("/api/products", api.ListProductsHandler(db, redisClient))    // Browse/search listings
	r.GET("/api/products/:id", api.GetProductHandler(db, redisClient))  // Product detail
	r.GET("/api/sellers/:id/reviews", api.ListSellerReviewsHandler(db)) // Seller reviews

	// Authenticated routes (protected by JWT)
	auth := r.Group("/api")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	auth.POST("/products", api.CreateProductHandler(db, redisClient))       // Publish a listing
	auth.POST("/products/:id/like", api.LikeProductHandler(db, redisClient)) // Like a listing
	auth.POST("/orders", api.CreateOrderHandler(db, redisClient))           // Checkout
	auth.GET("/orders", api.ListOrdersHandler(db))                          // Purchases and sales
	auth.GET("/orders/:id", api.GetOrderHandler(db))                        // Order detail
	auth.POST("/orders/:id/ship", api.ShipOrderHandler(db))                 // Seller ships
	auth.POST("/orders/:id/complete", api.CompleteOrderHandler(db, redisClient)) // Buyer confirms receipt
	auth.POST("/reviews", api.CreateReviewHandler(db))                      // Buyer reviews seller
	auth.GET("/wallet", api.GetWalletHandler(db, redisClient))              // Wallet summary
	auth.POST("/wallet/deposit", api.DepositHandler(db, redisClient))       // Deposit funds
	auth.POST("/wallet/withdraw", api.WithdrawHandler(db, redisClient))     // Withdraw funds
	auth.GET("/wallet/transactions", api.GetTransactionHistoryHandler(db, redisClient)) // Transaction history
	auth.POST("/conversations", api.CreateConversationHandler(db))          // Open a conversation
	auth.GET("/conversations", api.ListConversationsHandler(db))            // My conversations
	auth.GET("/conversations/:id/messages", api.ListMessagesHandler(db))    // Conversation history

	// Real-time chat channel (token checked at the handshake)
	r.GET("/ws", api.ServeWSHandler(hub, db, cfg.JWTSecret))

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
