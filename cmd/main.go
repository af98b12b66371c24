package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"configurator-service/internal/clients"
	"configurator-service/internal/config"
	"configurator-service/internal/events"
	"configurator-service/internal/handlers"
	"configurator-service/internal/metrics"
	"configurator-service/internal/middleware"
	"configurator-service/internal/repository"
)

// @title Product Configurator API
// @version 1.0.0
// @description Product configuration and pricing resolution service with multi-tenant support
// @termsOfService http://swagger.io/terms/

// @contact.name Configurator API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8094
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient = nil
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repository
	catalogRepo := repository.NewCatalogRepository(db, redisClient)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if os.Getenv("NATS_URL") != "" {
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize clients
	cartClient := clients.NewCartClient()

	// Initialize handlers
	configurationsHandler := handlers.NewConfigurationsHandler(catalogRepo, eventsPublisher)
	storefrontHandler := handlers.NewStorefrontHandler(catalogRepo, eventsPublisher, cartClient, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", metrics.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	// Authentication middleware
	// In development: use DevelopmentAuthMiddleware for local testing
	// In production: require the identity headers from the auth gateway
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	} else {
		api.Use(middleware.HeaderAuthMiddleware())
	}
	api.Use(middleware.TenantMiddleware())

	// API routes
	v1 := api.Group("")
	{
		configurations := v1.Group("/configurations")
		{
			configurations.POST("", configurationsHandler.CreateConfiguration)
			configurations.GET("", configurationsHandler.ListConfigurations)
			configurations.GET("/:id", configurationsHandler.GetConfiguration)
			configurations.PUT("/:id", configurationsHandler.UpdateConfiguration)
			configurations.DELETE("/:id", configurationsHandler.DeleteConfiguration)

			configurations.POST("/:id/variants", configurationsHandler.CreateVariant)
			configurations.GET("/:id/variants", configurationsHandler.ListVariants)
			configurations.PUT("/:id/variants/:variantId", configurationsHandler.UpdateVariant)
			configurations.PUT("/:id/variants/:variantId/stock", configurationsHandler.UpdateVariantStock)
			configurations.DELETE("/:id/variants/:variantId", configurationsHandler.DeleteVariant)
		}
	}

	// =============================================================================
	// PUBLIC STOREFRONT ENDPOINTS (no auth required, only tenant context)
	// These endpoints are for public storefronts to configure and price products
	// =============================================================================
	storefront := router.Group("/api/v1/storefront")
	storefront.Use(middleware.TenantMiddleware()) // Require tenant context only
	{
		storefront.GET("/products/:id/configuration", storefrontHandler.GetProductConfiguration)
		storefront.POST("/products/:id/configuration/resolve", storefrontHandler.ResolveConfiguration)
		storefront.POST("/products/:id/configuration/commit", storefrontHandler.CommitConfiguration)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Configurator service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down configurator-service...")
	log.Println("Configurator service stopped")
}
