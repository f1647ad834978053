package chat

import (
	"log"
)

// AcceptFriendRequest records an accept response carrying the display name
// to reveal if the partner accepts too. The round resolves the moment both
// members have responded.
func (c *Coordinator) AcceptFriendRequest(conn Conn, roomID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.isMember(conn.ID()) {
		log.Printf("[CHAT] acceptFriendRequest ignored: %s not in room %s", conn.ID(), roomID)
		return
	}
	if _, dup := room.responded[conn.ID()]; dup {
		log.Printf("[CHAT] duplicate friend-request response from %s ignored (room %s)", conn.ID(), roomID)
		return
	}

	room.responded[conn.ID()] = struct{}{}
	room.pendingNames[conn.ID()] = name
	c.maybeResolveLocked(room)
}

// RejectFriendRequest records a reject response. A single reject is enough
// to make the whole round resolve as rejected.
func (c *Coordinator) RejectFriendRequest(conn Conn, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.isMember(conn.ID()) {
		log.Printf("[CHAT] rejectFriendRequest ignored: %s not in room %s", conn.ID(), roomID)
		return
	}
	if _, dup := room.responded[conn.ID()]; dup {
		log.Printf("[CHAT] duplicate friend-request response from %s ignored (room %s)", conn.ID(), roomID)
		return
	}

	room.responded[conn.ID()] = struct{}{}
	c.maybeResolveLocked(room)
}

// maybeResolveLocked fires the round outcome once both members have
// responded. Both accepted: each member gets the other's submitted name and
// the room keeps the revealed names. Any reject: both get a rejection. The
// round record is cleared either way, so a new round can start from empty
// state. Caller holds c.mu.
func (c *Coordinator) maybeResolveLocked(room *Room) {
	if len(room.members) != 2 {
		return
	}
	for id := range room.members {
		if _, ok := room.responded[id]; !ok {
			log.Printf("[CHAT] waiting for other response in room %s", room.ID)
			return
		}
	}

	accepted := true
	for id := range room.members {
		if _, ok := room.pendingNames[id]; !ok {
			accepted = false
			break
		}
	}

	if accepted {
		for id, name := range room.pendingNames {
			room.names[id] = name
		}
		for id, m := range room.members {
			partner := room.partnerOf(id)
			m.Send(EventFriendRequestAccepted, map[string]interface{}{
				"name": room.names[partner.ID()],
			})
		}
		log.Printf("[CHAT] friend request accepted in room %s, names revealed", room.ID)
	} else {
		for _, m := range room.members {
			m.Send(EventFriendRequestRejected, nil)
		}
		log.Printf("[CHAT] friend request rejected in room %s", room.ID)
	}

	room.clearHandshake()
	room.State = StateResolved
}

// handshakeExpired forces a rejection outcome when an armed round has not
// resolved within the configured bound, so a member whose partner never
// responds is not left pending forever. The room may have resolved or been
// destroyed since the timer was armed.
func (c *Coordinator) handshakeExpired(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || room.State != StateAwaitingHandshake {
		return
	}

	log.Printf("[CHAT] friend-request round timed out in room %s, forcing rejection", roomID)
	for _, m := range room.members {
		m.Send(EventFriendRequestRejected, nil)
	}
	room.clearHandshake()
	room.State = StateResolved
}
