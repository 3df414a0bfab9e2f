package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/api"
	"github.com/constructiq/safety-lead-pipeline/internal/database"
	"github.com/constructiq/safety-lead-pipeline/internal/logger"
	"github.com/constructiq/safety-lead-pipeline/internal/middleware"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize configuration
	cfg := config.New()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	// Scoring configuration is fatal when invalid: no rebuild may run over
	// weights that do not sum to 1.0.
	scoringCfg, err := config.LoadScoringConfig(cfg.ScoringConfig)
	if err != nil {
		log.Fatal("Invalid scoring configuration:", err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()
	r.Use(middleware.LoggingMiddleware(zlog))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware())
	r.Use(gin.Recovery())

	// Setup API routes
	if err := api.SetupRoutes(r, db, cfg, scoringCfg, zlog); err != nil {
		log.Fatal("Failed to setup API routes:", err)
	}

	zlog.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
