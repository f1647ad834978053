package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/breezechat/backend/internal/api"
	"github.com/breezechat/backend/internal/chat"
	"github.com/breezechat/backend/internal/config"
	"github.com/breezechat/backend/internal/database"
	"github.com/breezechat/backend/internal/migrations"
	"github.com/breezechat/backend/internal/redis"
	"github.com/breezechat/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Build the coordinator: one instance owns the waiting queue and the
	// room table for the whole process.
	history := chat.NewHistoryRecorder(db, rdb)
	coord := chat.NewCoordinator(chat.Options{
		Countdown:        time.Duration(cfg.ChatCountdownSeconds) * time.Second,
		HandshakeTimeout: time.Duration(cfg.HandshakeTimeoutSeconds) * time.Second,
		Recorder:         history,
	})

	// WebSocket layer
	wsHandler := ws.NewHandler(coord)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, rdb, cfg, coord, history, wsHandler)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "3001"
	}

	log.Printf("Starting Breeze server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
