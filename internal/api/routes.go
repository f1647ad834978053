package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/breezechat/backend/internal/admin"
	"github.com/breezechat/backend/internal/api/handlers"
	"github.com/breezechat/backend/internal/chat"
	"github.com/breezechat/backend/internal/config"
	"github.com/breezechat/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, rdb *redis.Client, cfg *config.Config, coord *chat.Coordinator, history *chat.HistoryRecorder, wsHandler *ws.Handler) {
	// CORS middleware for the mini-app frontend
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Wallet sign-in support (signature verification stays upstream)
		auth := v1.Group("/auth")
		{
			auth.GET("/nonce", handlers.IssueNonce(rdb, cfg))
			auth.POST("/complete-siwe", handlers.CompleteSIWE(rdb, cfg))
		}

		// Chat coordination
		chatGroup := v1.Group("/chat")
		{
			chatGroup.GET("/status", handlers.ChatStatus(coord, wsHandler))
			chatGroup.GET("/ws", handlers.HandleChatWebSocket(wsHandler))
		}

		// Operator endpoints
		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/login", handlers.AdminLogin(cfg))
			adminGroup.GET("/stats", admin.RequireAuth(cfg.JWTSecret), handlers.AdminStats(coord, history))
		}
	}
}
