package ws

import (
	"encoding/json"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/breezechat/backend/internal/chat"
)

// Inbound event payloads.
type RoomData struct {
	RoomID string `json:"roomId"`
}

type MessageData struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type AcceptData struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// Handler owns the hub and routes inbound events into the coordinator.
type Handler struct {
	hub   *Hub
	coord *chat.Coordinator
}

// NewHandler wires a handler to the coordinator and starts the hub loop.
func NewHandler(coord *chat.Coordinator) *Handler {
	h := &Handler{
		hub:   NewHub(),
		coord: coord,
	}
	go h.run()
	return h
}

// ConnectionCount reports live connections for the status endpoint.
func (h *Handler) ConnectionCount() int {
	return h.hub.ConnectionCount()
}

// HandleWebSocket upgrades the request and starts the client pumps. Each
// connection gets a fresh opaque id; participants stay anonymous until a
// mutual friend-request accept reveals names.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:    conn,
		id:      uuid.NewString(),
		send:    make(chan []byte, 256),
		handler: h,
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// run processes hub registration and teardown. Disconnects always route
// through the coordinator so queue and room state is reaped.
func (h *Handler) run() {
	for {
		select {
		case client := <-h.hub.register:
			h.hub.mu.Lock()
			h.hub.clients[client.id] = client
			h.hub.mu.Unlock()
			log.Printf("[WS] connection %s established", client.id)

		case client := <-h.hub.unregister:
			h.hub.mu.Lock()
			if cur, ok := h.hub.clients[client.id]; ok && cur == client {
				delete(h.hub.clients, client.id)
			}
			h.hub.mu.Unlock()

			h.coord.Disconnect(client)
			client.closeSend()
			log.Printf("[WS] connection %s closed", client.id)
		}
	}
}

// handleMessage dispatches one inbound event. Malformed payloads are logged
// and dropped; events naming unknown rooms are no-ops inside the
// coordinator. Neither fault reaches the partner.
func (c *Client) handleMessage(msg WSMessage) {
	coord := c.handler.coord

	switch msg.Type {
	case "findMatch":
		coord.FindMatch(c)

	case "joinRoom":
		var data RoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			log.Printf("[WS] invalid joinRoom payload from %s", c.id)
			return
		}
		coord.JoinRoom(c, data.RoomID)

	case "sendMessage":
		var data MessageData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			log.Printf("[WS] invalid sendMessage payload from %s", c.id)
			return
		}
		coord.SendMessage(c, data.RoomID, data.Text)

	case "leaveRoom":
		var data RoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			log.Printf("[WS] invalid leaveRoom payload from %s", c.id)
			return
		}
		coord.LeaveRoom(c, data.RoomID, true)

	case "quietLeaveRoom":
		var data RoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			log.Printf("[WS] invalid quietLeaveRoom payload from %s", c.id)
			return
		}
		coord.LeaveRoom(c, data.RoomID, false)

	case "acceptFriendRequest":
		var data AcceptData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			log.Printf("[WS] invalid acceptFriendRequest payload from %s", c.id)
			return
		}
		coord.AcceptFriendRequest(c, data.RoomID, data.Name)

	case "rejectFriendRequest":
		var data RoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			log.Printf("[WS] invalid rejectFriendRequest payload from %s", c.id)
			return
		}
		coord.RejectFriendRequest(c, data.RoomID)

	case "typing":
		var data RoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.RoomID == "" {
			return
		}
		coord.Typing(c, data.RoomID)

	default:
		log.Printf("[WS] unknown message type %q from %s", msg.Type, c.id)
	}
}
