package chat

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outbound event names. Inbound names live in the ws dispatch layer.
const (
	EventMatchSuccess          = "matchSuccess"
	EventReceiveMessage        = "receiveMessage"
	EventPartnerLeft           = "partnerLeft"
	EventPartnerTyping         = "partnerTyping"
	EventFriendRequestAccepted = "friendRequestAccepted"
	EventFriendRequestRejected = "friendRequestRejected"
)

// SenderSystem tags relayed system notices.
const SenderSystem = "system"

// Options configures a Coordinator.
type Options struct {
	// Countdown is the advisory session countdown; when it elapses the
	// friend-request round is armed. Clients run the visible timer.
	Countdown time.Duration

	// HandshakeTimeout bounds how long an armed round may wait for both
	// responses before a rejection is forced. Zero disables the bound.
	HandshakeTimeout time.Duration

	// Recorder receives room lifecycle notifications. May be nil.
	Recorder Recorder
}

type waitingEntry struct {
	conn       Conn
	enqueuedAt time.Time
}

// Coordinator owns the waiting queue and the active-room table. All
// mutations go through its single mutex; it never blocks while holding it.
// It is constructed once at startup and passed into every handler.
type Coordinator struct {
	mu      sync.Mutex
	waiting []waitingEntry
	rooms   map[string]*Room
	member  map[string]string // conn id -> room id

	opts     Options
	recordCh chan func()
}

func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		rooms:  make(map[string]*Room),
		member: make(map[string]string),
		opts:   opts,
	}
	if opts.Recorder != nil {
		// One worker keeps lifecycle notifications in submission order, so
		// a room's closure can never be recorded before its creation.
		c.recordCh = make(chan func(), 256)
		go func() {
			for fn := range c.recordCh {
				fn()
			}
		}()
	}
	return c
}

// record enqueues a recorder call without blocking; callers hold c.mu and
// recorder implementations do I/O.
func (c *Coordinator) record(fn func()) {
	if c.recordCh == nil {
		return
	}
	select {
	case c.recordCh <- fn:
	default:
		log.Printf("[CHAT] recorder queue full, dropping notification")
	}
}

// FindMatch pairs the connection with the oldest waiting stranger, or
// enqueues it when nobody is waiting. Pairing is strict FIFO.
func (c *Coordinator) FindMatch(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.member[conn.ID()]; busy {
		log.Printf("[CHAT] findMatch ignored: %s is already in a room", conn.ID())
		return
	}
	for _, e := range c.waiting {
		if e.conn.ID() == conn.ID() {
			log.Printf("[CHAT] findMatch ignored: %s is already waiting", conn.ID())
			return
		}
	}

	var partner Conn
	for i, e := range c.waiting {
		if e.conn.ID() != conn.ID() {
			partner = e.conn
			c.waiting = append(c.waiting[:i], c.waiting[i+1:]...)
			break
		}
	}

	if partner == nil {
		c.waiting = append(c.waiting, waitingEntry{conn: conn, enqueuedAt: time.Now()})
		log.Printf("[CHAT] %s added to waiting queue (depth=%d)", conn.ID(), len(c.waiting))
		return
	}

	room := c.createRoomLocked(conn, partner)
	log.Printf("[CHAT] match found: %s <--> %s, room %s", conn.ID(), partner.ID(), room.ID)

	payload := map[string]interface{}{"roomId": room.ID}
	conn.Send(EventMatchSuccess, payload)
	partner.Send(EventMatchSuccess, payload)
}

// createRoomLocked allocates a room for the two connections and starts its
// advisory countdown. Caller holds c.mu.
func (c *Coordinator) createRoomLocked(a, b Conn) *Room {
	now := time.Now()
	room := &Room{
		ID:           uuid.NewString(),
		State:        StateActive,
		CreatedAt:    now,
		Deadline:     now.Add(c.opts.Countdown),
		members:      map[string]Conn{a.ID(): a, b.ID(): b},
		names:        make(map[string]string),
		responded:    make(map[string]struct{}),
		pendingNames: make(map[string]string),
	}

	roomID := room.ID
	room.countdown = time.AfterFunc(c.opts.Countdown, func() {
		c.countdownElapsed(roomID)
	})

	c.rooms[roomID] = room
	c.member[a.ID()] = roomID
	c.member[b.ID()] = roomID

	c.record(func() { c.opts.Recorder.RoomCreated(roomID, now) })
	return room
}

// JoinRoom attaches the connection to an existing room, or lazily creates a
// placeholder for a client that already holds a room id (reconnect-style
// joins). A full room with a different pair is left untouched.
func (c *Coordinator) JoinRoom(conn Conn, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A connection is a member of at most one room at a time.
	if curID, ok := c.member[conn.ID()]; ok && curID != roomID {
		if _, live := c.rooms[curID]; live {
			log.Printf("[CHAT] joinRoom ignored: %s is already in room %s", conn.ID(), curID)
			return
		}
		delete(c.member, conn.ID())
	}

	// Joining a room always ends any wait for a match.
	c.removeWaitingLocked(conn.ID())

	room, ok := c.rooms[roomID]
	if !ok {
		now := time.Now()
		room = &Room{
			ID:           roomID,
			State:        StateActive,
			CreatedAt:    now,
			Deadline:     now.Add(c.opts.Countdown),
			members:      map[string]Conn{conn.ID(): conn},
			names:        make(map[string]string),
			responded:    make(map[string]struct{}),
			pendingNames: make(map[string]string),
		}
		room.countdown = time.AfterFunc(c.opts.Countdown, func() {
			c.countdownElapsed(roomID)
		})
		c.rooms[roomID] = room
		c.member[conn.ID()] = roomID
		c.record(func() { c.opts.Recorder.RoomCreated(roomID, now) })
		log.Printf("[CHAT] new room created: %s", roomID)
		return
	}

	if room.isMember(conn.ID()) {
		// Replace a stale handle after a reconnect under the same id.
		room.members[conn.ID()] = conn
		c.member[conn.ID()] = roomID
	} else if len(room.members) < 2 {
		room.members[conn.ID()] = conn
		c.member[conn.ID()] = roomID
	} else {
		log.Printf("[CHAT] joinRoom ignored: room %s is full", roomID)
		return
	}
	log.Printf("[CHAT] %s joined room %s", conn.ID(), roomID)
}

// LeaveRoom detaches the connection and destroys the room. With notify set
// the remaining member is told the partner left; a quiet leave (the tail end
// of a handshake rejection the client UI already explained) says nothing.
func (c *Coordinator) LeaveRoom(conn Conn, roomID string, notify bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || !room.isMember(conn.ID()) {
		log.Printf("[CHAT] leaveRoom ignored: %s not in room %s", conn.ID(), roomID)
		return
	}

	partner := room.partnerOf(conn.ID())
	outcome := "left"
	if !notify {
		outcome = "quiet"
	}
	c.destroyRoomLocked(room, outcome)

	if notify && partner != nil {
		partner.Send(EventReceiveMessage, map[string]interface{}{
			"sender": SenderSystem,
			"text":   "Partner has left the chat",
		})
		partner.Send(EventPartnerLeft, nil)
	}
	log.Printf("[CHAT] %s left room %s (notify=%v)", conn.ID(), roomID, notify)
}

// Disconnect is the reaper path for a dropped transport: dequeue if waiting,
// and tear down the room if the connection was a member. Teardown is keyed
// by room id, so the second of two near-simultaneous disconnects is a no-op.
func (c *Coordinator) Disconnect(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.removeWaitingLocked(conn.ID()) {
		log.Printf("[CHAT] %s removed from waiting queue", conn.ID())
	}

	roomID, ok := c.member[conn.ID()]
	if !ok {
		return
	}
	room, ok := c.rooms[roomID]
	if !ok {
		delete(c.member, conn.ID())
		return
	}

	partner := room.partnerOf(conn.ID())
	c.destroyRoomLocked(room, "disconnected")
	if partner != nil {
		partner.Send(EventPartnerLeft, nil)
	}
	log.Printf("[CHAT] chat ended for room %s (disconnect of %s)", roomID, conn.ID())
}

// countdownElapsed fires on the advisory deadline. The room may already be
// gone, or may have resolved a round early; both are checked under the lock.
func (c *Coordinator) countdownElapsed(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms[roomID]
	if !ok || room.State != StateActive {
		return
	}
	room.State = StateAwaitingHandshake
	log.Printf("[CHAT] countdown elapsed for room %s, friend-request round armed", roomID)

	if c.opts.HandshakeTimeout > 0 {
		room.handshakeTimer = time.AfterFunc(c.opts.HandshakeTimeout, func() {
			c.handshakeExpired(roomID)
		})
	}
}

// destroyRoomLocked removes the room and its member index entries and stops
// its timers. Idempotent: callers look the room up first, and a room can
// only be found in the table once. Caller holds c.mu.
func (c *Coordinator) destroyRoomLocked(room *Room, outcome string) {
	room.stopTimers()
	for id := range room.members {
		if c.member[id] == room.ID {
			delete(c.member, id)
		}
	}
	delete(c.rooms, room.ID)

	roomID, createdAt := room.ID, room.CreatedAt
	friended := len(room.names) == 2
	closedAt := time.Now()
	c.record(func() { c.opts.Recorder.RoomClosed(roomID, outcome, createdAt, closedAt, friended) })
}

// removeWaitingLocked drops the connection from the queue if present.
func (c *Coordinator) removeWaitingLocked(connID string) bool {
	for i, e := range c.waiting {
		if e.conn.ID() == connID {
			c.waiting = append(c.waiting[:i], c.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// Status reports the waiting-queue depth and active-room count.
func (c *Coordinator) Status() (waiting, activeRooms int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiting), len(c.rooms)
}

// RoomState reports the lifecycle state of a room, and whether it exists.
func (c *Coordinator) RoomState(roomID string) (RoomState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.rooms[roomID]
	if !ok {
		return "", false
	}
	return room.State, true
}
