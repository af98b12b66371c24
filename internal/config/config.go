package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"configurator-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port        string
	Environment string

	// Services
	CartServiceURL string

	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// Catalog limits
	MaxVariationGroups int
	MaxVariants        int
	MaxCustomOptions   int
	DefaultCurrency    string
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))
	maxGroups, _ := strconv.Atoi(getEnv("MAX_VARIATION_GROUPS", "10"))
	maxVariants, _ := strconv.Atoi(getEnv("MAX_VARIANTS", "500"))
	maxCustomOptions, _ := strconv.Atoi(getEnv("MAX_CUSTOM_OPTIONS", "50"))

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "configurator_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("PORT", "8094"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Services
		CartServiceURL: getEnv("CART_SERVICE_URL", "http://customers-service:8083"),

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,

		// Catalog limits
		MaxVariationGroups: maxGroups,
		MaxVariants:        maxVariants,
		MaxCustomOptions:   maxCustomOptions,
		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "USD"),
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate models to keep schema up to date
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.ProductConfiguration{},
		&models.ConcreteVariant{},
		&models.CommittedConfiguration{},
	); err != nil {
		return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
