package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/breezechat/backend/internal/chat"
	"github.com/breezechat/backend/internal/ws"
)

// ChatStatus reports live coordination state: connections, queue depth and
// active rooms.
func ChatStatus(coord *chat.Coordinator, wsHandler *ws.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		waiting, rooms := coord.Status()
		c.JSON(http.StatusOK, gin.H{
			"connections":  wsHandler.ConnectionCount(),
			"waiting":      waiting,
			"active_rooms": rooms,
		})
	}
}
