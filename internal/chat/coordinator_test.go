package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Event string
	Data  map[string]interface{}
}

// fakeConn records every event it is sent. Safe for concurrent use since
// timer callbacks deliver from their own goroutines.
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []recordedEvent
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var m map[string]interface{}
	if data != nil {
		m = data.(map[string]interface{})
	}
	f.events = append(f.events, recordedEvent{Event: event, Data: m})
}

func (f *fakeConn) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (f *fakeConn) firstData(event string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.Event == event {
			return e.Data
		}
	}
	return nil
}

func newTestCoordinator() *Coordinator {
	// Long countdown so no timer fires unless a test wants it to.
	return NewCoordinator(Options{Countdown: time.Hour})
}

// pair matches two fresh connections and returns them with their room id.
func pair(t *testing.T, c *Coordinator, idA, idB string) (*fakeConn, *fakeConn, string) {
	t.Helper()
	a := newFakeConn(idA)
	b := newFakeConn(idB)
	c.FindMatch(a)
	c.FindMatch(b)

	dataA := a.firstData(EventMatchSuccess)
	dataB := b.firstData(EventMatchSuccess)
	require.NotNil(t, dataA)
	require.NotNil(t, dataB)
	require.Equal(t, dataA["roomId"], dataB["roomId"])

	roomID, ok := dataA["roomId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, roomID)
	return a, b, roomID
}

func TestFindMatchQueuesFirstCaller(t *testing.T) {
	c := newTestCoordinator()
	c1 := newFakeConn("c1")

	c.FindMatch(c1)

	waiting, rooms := c.Status()
	assert.Equal(t, 1, waiting)
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, c1.count(EventMatchSuccess))
}

func TestFindMatchIgnoresRepeatWhileWaiting(t *testing.T) {
	c := newTestCoordinator()
	c1 := newFakeConn("c1")

	c.FindMatch(c1)
	c.FindMatch(c1)

	waiting, _ := c.Status()
	assert.Equal(t, 1, waiting, "a waiting connection must not be enqueued twice")
}

func TestFIFOPairing(t *testing.T) {
	c := newTestCoordinator()
	conns := []*fakeConn{
		newFakeConn("c1"), newFakeConn("c2"),
		newFakeConn("c3"), newFakeConn("c4"),
	}
	for _, conn := range conns {
		c.FindMatch(conn)
	}

	for _, conn := range conns {
		require.Equal(t, 1, conn.count(EventMatchSuccess), "connection %s must be matched exactly once", conn.ID())
	}

	room12 := conns[0].firstData(EventMatchSuccess)["roomId"]
	assert.Equal(t, room12, conns[1].firstData(EventMatchSuccess)["roomId"], "c1 pairs with c2")

	room34 := conns[2].firstData(EventMatchSuccess)["roomId"]
	assert.Equal(t, room34, conns[3].firstData(EventMatchSuccess)["roomId"], "c3 pairs with c4")

	assert.NotEqual(t, room12, room34)

	waiting, rooms := c.Status()
	assert.Equal(t, 0, waiting)
	assert.Equal(t, 2, rooms)
}

func TestMessageRoundTrip(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")

	c.SendMessage(c1, roomID, "hi")

	require.Equal(t, 1, c2.count(EventReceiveMessage))
	data := c2.firstData(EventReceiveMessage)
	assert.Equal(t, "c1", data["sender"])
	assert.Equal(t, "hi", data["text"])

	assert.Equal(t, 0, c1.count(EventReceiveMessage), "sender must not receive its own message")
}

func TestRoomIsolation(t *testing.T) {
	c := newTestCoordinator()
	c1, _, roomA := pair(t, c, "c1", "c2")
	c3, c4, _ := pair(t, c, "c3", "c4")

	c.SendMessage(c1, roomA, "secret")

	assert.Equal(t, 0, c3.count(EventReceiveMessage))
	assert.Equal(t, 0, c4.count(EventReceiveMessage))
}

func TestSendMessageToUnknownRoomIsNoop(t *testing.T) {
	c := newTestCoordinator()
	c1 := newFakeConn("c1")

	c.SendMessage(c1, "no-such-room", "hello")

	assert.Empty(t, c1.events)
}

func TestTypingIndicator(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")

	c.Typing(c1, roomID)

	assert.Equal(t, 1, c2.count(EventPartnerTyping))
	assert.Equal(t, 0, c1.count(EventPartnerTyping))
}

func TestNotifyingLeaveDestroysRoom(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")

	c.LeaveRoom(c1, roomID, true)

	assert.Equal(t, 1, c2.count(EventPartnerLeft))
	sys := c2.firstData(EventReceiveMessage)
	require.NotNil(t, sys)
	assert.Equal(t, SenderSystem, sys["sender"])

	_, exists := c.RoomState(roomID)
	assert.False(t, exists, "room must be removed on leave")

	// No longer resolvable by either party.
	c.SendMessage(c2, roomID, "anyone there?")
	assert.Equal(t, 0, c1.count(EventReceiveMessage))
}

func TestQuietLeaveSaysNothing(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")

	c.LeaveRoom(c1, roomID, false)

	assert.Equal(t, 0, c2.count(EventPartnerLeft))
	assert.Equal(t, 0, c2.count(EventReceiveMessage))

	_, exists := c.RoomState(roomID)
	assert.False(t, exists, "room must be removed on quiet leave")
}

func TestLeaveIsIdempotent(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")

	c.LeaveRoom(c1, roomID, true)
	c.LeaveRoom(c1, roomID, true)
	c.LeaveRoom(c2, roomID, true)

	assert.Equal(t, 1, c2.count(EventPartnerLeft))
	assert.Equal(t, 0, c1.count(EventPartnerLeft))
}

func TestQueueOnlyDisconnect(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")
	waiter := newFakeConn("waiter")
	c.FindMatch(waiter)

	c.Disconnect(waiter)

	waiting, rooms := c.Status()
	assert.Equal(t, 0, waiting)
	assert.Equal(t, 1, rooms)

	// The active room is untouched.
	c.SendMessage(c1, roomID, "still here")
	assert.Equal(t, 1, c2.count(EventReceiveMessage))
	assert.Equal(t, 0, c1.count(EventPartnerLeft))
	assert.Equal(t, 0, c2.count(EventPartnerLeft))
}

func TestIdempotentTeardownOnDualDisconnect(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")

	c.Disconnect(c1)
	c.Disconnect(c2)

	assert.Equal(t, 1, c1.count(EventPartnerLeft)+c2.count(EventPartnerLeft),
		"exactly one partnerLeft across both members")

	_, exists := c.RoomState(roomID)
	assert.False(t, exists)
}

func TestDisconnectedMemberCanRequeue(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, _ := pair(t, c, "c1", "c2")

	c.Disconnect(c1)

	// The surviving member is free to look for a new match.
	c.FindMatch(c2)
	waiting, _ := c.Status()
	assert.Equal(t, 1, waiting)
}

func TestJoinRoomCreatesPlaceholder(t *testing.T) {
	c := newTestCoordinator()
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")

	c.JoinRoom(c1, "room-x")
	c.JoinRoom(c2, "room-x")

	state, exists := c.RoomState("room-x")
	require.True(t, exists)
	assert.Equal(t, StateActive, state)

	c.SendMessage(c1, "room-x", "hello")
	assert.Equal(t, 1, c2.count(EventReceiveMessage))
}

func TestJoinRoomDequeuesWaiter(t *testing.T) {
	c := newTestCoordinator()
	c1 := newFakeConn("c1")
	c.FindMatch(c1)

	c.JoinRoom(c1, "room-y")

	waiting, _ := c.Status()
	assert.Equal(t, 0, waiting, "a session member must never remain in the queue")
}

func TestJoinRoomWhileInAnotherRoomIsIgnored(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomA := pair(t, c, "c1", "c2")

	c.JoinRoom(c1, "room-b")

	_, exists := c.RoomState("room-b")
	assert.False(t, exists, "a session member must not open a second room")

	// c1's only membership is still room A.
	c.SendMessage(c2, roomA, "still with me?")
	assert.Equal(t, 1, c1.count(EventReceiveMessage))

	// The reaper tears down room A, not a leaked second room.
	c.Disconnect(c1)
	_, exists = c.RoomState(roomA)
	assert.False(t, exists, "room A must not leak")
	assert.Equal(t, 1, c2.count(EventPartnerLeft))
}

type orderedRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *orderedRecorder) RoomCreated(roomID string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "created:"+roomID)
}

func (r *orderedRecorder) RoomClosed(roomID, _ string, _, _ time.Time, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "closed:"+roomID)
}

func (r *orderedRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestRecorderSeesCreationBeforeClosure(t *testing.T) {
	rec := &orderedRecorder{}
	c := NewCoordinator(Options{Countdown: time.Hour, Recorder: rec})

	// A room that lives for no time at all.
	c1, _, roomID := pair(t, c, "c1", "c2")
	c.LeaveRoom(c1, roomID, true)

	var calls []string
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); {
		calls = rec.snapshot()
		if len(calls) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	require.Equal(t, []string{"created:" + roomID, "closed:" + roomID}, calls)
}

func TestJoinRoomIgnoresThirdMember(t *testing.T) {
	c := newTestCoordinator()
	c1, c2, roomID := pair(t, c, "c1", "c2")
	intruder := newFakeConn("intruder")

	c.JoinRoom(intruder, roomID)

	c.SendMessage(c1, roomID, "private")
	assert.Equal(t, 1, c2.count(EventReceiveMessage))
	assert.Equal(t, 0, intruder.count(EventReceiveMessage))
}

func TestEndToEndScenario(t *testing.T) {
	c := newTestCoordinator()
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")

	// C1 findMatch -> queued
	c.FindMatch(c1)
	waiting, _ := c.Status()
	require.Equal(t, 1, waiting)

	// C2 findMatch -> both receive matchSuccess with the same room
	c.FindMatch(c2)
	require.Equal(t, 1, c1.count(EventMatchSuccess))
	require.Equal(t, 1, c2.count(EventMatchSuccess))
	roomID := c1.firstData(EventMatchSuccess)["roomId"].(string)
	require.Equal(t, roomID, c2.firstData(EventMatchSuccess)["roomId"])

	// C1 sends hello
	c.SendMessage(c1, roomID, "hello")
	data := c2.firstData(EventReceiveMessage)
	require.NotNil(t, data)
	assert.Equal(t, "c1", data["sender"])
	assert.Equal(t, "hello", data["text"])

	// C1 leaves -> C2 told, room gone for both
	c.LeaveRoom(c1, roomID, true)
	assert.Equal(t, 1, c2.count(EventPartnerLeft))

	_, exists := c.RoomState(roomID)
	assert.False(t, exists)
	c.SendMessage(c2, roomID, "hello?")
	assert.Equal(t, 0, c1.count(EventReceiveMessage))
}
