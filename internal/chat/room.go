package chat

import (
	"time"
)

// Conn is the transport-side handle for a connected participant. The ws
// layer implements it; tests substitute fakes. Send must never block.
type Conn interface {
	ID() string
	Send(event string, data interface{})
}

// RoomState tracks where a room is in its lifecycle. Closed rooms are
// removed from the table rather than tagged.
type RoomState string

const (
	StateActive            RoomState = "ACTIVE"
	StateAwaitingHandshake RoomState = "AWAITING_HANDSHAKE"
	StateResolved          RoomState = "RESOLVED"
)

// Room is a two-party chat session.
type Room struct {
	ID        string
	State     RoomState
	CreatedAt time.Time
	Deadline  time.Time

	members map[string]Conn
	names   map[string]string // revealed display names, populated on mutual accept

	// current friend-request round
	responded    map[string]struct{}
	pendingNames map[string]string

	countdown      *time.Timer
	handshakeTimer *time.Timer
}

func (r *Room) isMember(connID string) bool {
	_, ok := r.members[connID]
	return ok
}

// partnerOf returns the other member, or nil for a single-member placeholder.
func (r *Room) partnerOf(connID string) Conn {
	for id, m := range r.members {
		if id != connID {
			return m
		}
	}
	return nil
}

// clearHandshake resets the round so a new one can start from empty state.
func (r *Room) clearHandshake() {
	r.responded = make(map[string]struct{})
	r.pendingNames = make(map[string]string)
	if r.handshakeTimer != nil {
		r.handshakeTimer.Stop()
		r.handshakeTimer = nil
	}
}

func (r *Room) stopTimers() {
	if r.countdown != nil {
		r.countdown.Stop()
		r.countdown = nil
	}
	if r.handshakeTimer != nil {
		r.handshakeTimer.Stop()
		r.handshakeTimer = nil
	}
}
