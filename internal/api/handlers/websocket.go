package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/breezechat/backend/internal/ws"
)

// HandleChatWebSocket handles real-time chat coordination
func HandleChatWebSocket(h *ws.Handler) gin.HandlerFunc {
	return h.HandleWebSocket
}
