package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/breezechat/backend/internal/admin"
	"github.com/breezechat/backend/internal/chat"
	"github.com/breezechat/backend/internal/config"
)

type adminLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// AdminLogin exchanges the operator token for a short-lived session token
func AdminLogin(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminTokenHash == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
			return
		}

		var req adminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		if !admin.VerifyToken(cfg.AdminTokenHash, req.Token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ttl := time.Duration(cfg.SessionTimeoutMin) * time.Minute
		token, err := admin.IssueToken(cfg.JWTSecret, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(ttl.Seconds())})
	}
}

// AdminStats returns live coordinator state plus history aggregates
func AdminStats(coord *chat.Coordinator, history *chat.HistoryRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		waiting, rooms := coord.Status()

		stats, err := history.Stats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history stats"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"waiting":          waiting,
			"active_rooms":     rooms,
			"total_sessions":   stats.TotalSessions,
			"friendships":      stats.Friendships,
			"avg_duration_sec": stats.AvgDurationSec,
		})
	}
}
