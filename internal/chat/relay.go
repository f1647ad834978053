package chat

import (
	"log"
)

// SendMessage relays a chat message to the other room member. Delivery is
// best-effort and ordered per room by the coordinator lock; the sender never
// receives its own message back.
func (c *Coordinator) SendMessage(from Conn, roomID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.isMember(from.ID()) {
		log.Printf("[CHAT] sendMessage ignored: %s not in room %s", from.ID(), roomID)
		return
	}
	partner := room.partnerOf(from.ID())
	if partner == nil {
		return
	}
	partner.Send(EventReceiveMessage, map[string]interface{}{
		"sender": from.ID(),
		"text":   text,
	})
}

// Typing relays a transient typing indicator to the other room member. The
// indicator carries no content; clients expire it after a few seconds of
// inactivity.
func (c *Coordinator) Typing(from Conn, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.isMember(from.ID()) {
		return
	}
	if partner := room.partnerOf(from.ID()); partner != nil {
		partner.Send(EventPartnerTyping, nil)
	}
}
