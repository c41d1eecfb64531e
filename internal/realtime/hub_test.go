package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/residencia-api/internal/domain/event"
)

// fakeSession buffers frames in memory; capacity 0 means unbounded
type fakeSession struct {
	id       string
	capacity int

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.capacity > 0 && len(s.frames) >= s.capacity) {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) received(t *testing.T) []Frame {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, 0, len(s.frames))
	for _, raw := range s.frames {
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		out = append(out, f)
	}
	return out
}

// identifiedSession is a fakeSession bound to a user and role
type identifiedSession struct {
	*fakeSession
	userID string
	role   string
}

func (s *identifiedSession) Identity() (string, string) { return s.userID, s.role }

func fixedHub() *Hub {
	h := NewHub()
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub()
	a := newFakeSession("a")

	h.Register(a)
	require.True(t, h.Join("a", "user:1"))
	assert.Equal(t, 1, h.SessionCount())
	assert.Equal(t, 1, h.RoomSize("user:1"))

	h.Unregister("a")

	assert.Equal(t, 0, h.SessionCount())
	assert.Equal(t, 0, h.RoomSize("user:1"))
	assert.True(t, a.isClosed())

	assert.NotPanics(t, func() { h.Unregister("a") })
}

func TestHub_JoinRequiresRegisteredSession(t *testing.T) {
	h := NewHub()

	assert.False(t, h.Join("ghost", "user:1"))
	assert.Equal(t, 0, h.RoomSize("user:1"))
}

func TestHub_BroadcastToRoomOnlyReachesMembers(t *testing.T) {
	h := NewHub()
	a, b := newFakeSession("a"), newFakeSession("b")
	h.Register(a)
	h.Register(b)
	h.Join("a", "role:ADMIN")

	delivered := h.BroadcastToRoom("role:ADMIN", "user.created", map[string]string{"id": "u1"})

	assert.Equal(t, 1, delivered)
	assert.Len(t, a.received(t), 1)
	assert.Empty(t, b.received(t))
}

func TestHub_LeaveStopsRoomDelivery(t *testing.T) {
	h := NewHub()
	a := newFakeSession("a")
	h.Register(a)
	h.Join("a", "building:A")
	h.Leave("a", "building:A")

	assert.Equal(t, 0, h.BroadcastToRoom("building:A", "x", nil))
	assert.Equal(t, 0, h.RoomSize("building:A"))
}

func TestHub_SendToClient(t *testing.T) {
	h := NewHub()
	a := newFakeSession("a")
	h.Register(a)

	assert.True(t, h.SendToClient("a", "ping", map[string]int{"n": 1}))
	assert.False(t, h.SendToClient("missing", "ping", nil))

	frames := a.received(t)
	require.Len(t, frames, 1)
	assert.Equal(t, "ping", frames[0].Event)
	assert.JSONEq(t, `{"n":1}`, string(frames[0].Data))
}

func TestHub_SlowSessionIsDropped(t *testing.T) {
	h := NewHub()
	slow := newFakeSession("slow")
	slow.capacity = 1
	fast := newFakeSession("fast")
	h.Register(slow)
	h.Register(fast)
	h.Join("slow", "user:1")

	assert.Equal(t, 2, h.BroadcastEvent("complaint.created", "first"))
	assert.Equal(t, 1, h.BroadcastEvent("complaint.created", "second"))

	assert.True(t, slow.isClosed())
	assert.Equal(t, 1, h.SessionCount())
	assert.Equal(t, 0, h.RoomSize("user:1"))
	assert.Len(t, fast.received(t), 2)
}

func TestHub_DispatchRouting(t *testing.T) {
	h := fixedHub()
	resident := newFakeSession("resident")
	admin := newFakeSession("admin")
	h.Register(resident)
	h.Register(admin)
	h.Join("resident", UserRoom("u-resident"))
	h.Join("resident", RoleRoom("RESIDENT"))
	h.Join("admin", UserRoom("u-admin"))
	h.Join("admin", RoleRoom("ADMIN"))
	ctx := context.Background()

	require.NoError(t, h.Dispatch(ctx, event.ComplaintCreated, json.RawMessage(`{"id":"c1"}`)))
	require.NoError(t, h.Dispatch(ctx, event.NotificationCreated, json.RawMessage(`{"id":"n1","userId":"u-resident"}`)))
	require.NoError(t, h.Dispatch(ctx, event.UserCreated, json.RawMessage(`{"id":"u2"}`)))
	require.NoError(t, h.Dispatch(ctx, event.Topic("something.else"), json.RawMessage(`{}`)))

	rf := resident.received(t)
	require.Len(t, rf, 2)
	assert.Equal(t, "complaint.created", rf[0].Event)
	assert.JSONEq(t, `{"type":"complaint.created","data":{"id":"c1"},"timestamp":"2024-05-01T12:00:00Z"}`, string(rf[0].Data))
	assert.Equal(t, "notification.created", rf[1].Event)

	af := admin.received(t)
	require.Len(t, af, 2)
	assert.Equal(t, "complaint.created", af[0].Event)
	assert.Equal(t, "user.created", af[1].Event)
}

func TestHub_DispatchNotificationWithoutRecipient(t *testing.T) {
	h := NewHub()

	assert.Error(t, h.Dispatch(context.Background(), event.NotificationCreated, json.RawMessage(`{"id":"n1"}`)))
	assert.Error(t, h.Dispatch(context.Background(), event.NotificationCreated, json.RawMessage(`not json`)))
}

func TestHub_HandleClientFrame(t *testing.T) {
	h := NewHub()
	a := newFakeSession("a")
	h.Register(a)

	h.HandleClientFrame("a", []byte(`{"event":"join-room","data":{"room":"building:B"}}`))
	assert.Equal(t, 1, h.RoomSize("building:B"))

	h.HandleClientFrame("a", []byte(`{"event":"leave-room","data":{"room":"building:B"}}`))
	assert.Equal(t, 0, h.RoomSize("building:B"))

	h.HandleClientFrame("a", []byte(`{"event":"join-room","data":{}}`))
	h.HandleClientFrame("a", []byte(`garbage`))

	frames := a.received(t)
	require.Len(t, frames, 4)
	assert.Equal(t, EventJoinedRoom, frames[0].Event)
	assert.JSONEq(t, `{"room":"building:B","message":"Joined room: building:B"}`, string(frames[0].Data))
	assert.Equal(t, EventLeftRoom, frames[1].Event)
	assert.Equal(t, EventError, frames[2].Event)
	assert.Equal(t, EventError, frames[3].Event)
}

func TestHub_ClientCannotJoinForeignPrivateRooms(t *testing.T) {
	h := fixedHub()
	victim := &identifiedSession{fakeSession: newFakeSession("victim"), userID: "victim-user", role: "ADMIN"}
	intruder := &identifiedSession{fakeSession: newFakeSession("intruder"), userID: "intruder-user", role: "RESIDENT"}
	anonymous := newFakeSession("anonymous")
	for _, s := range []Session{victim, intruder, anonymous} {
		h.Register(s)
	}
	h.Join("victim", UserRoom("victim-user"))
	h.Join("victim", RoleRoom("ADMIN"))

	h.HandleClientFrame("intruder", []byte(`{"event":"join-room","data":{"room":"user:victim-user"}}`))
	h.HandleClientFrame("intruder", []byte(`{"event":"join-room","data":{"room":"role:ADMIN"}}`))
	h.HandleClientFrame("anonymous", []byte(`{"event":"join-room","data":{"room":"user:victim-user"}}`))

	// Own rooms stay joinable
	h.HandleClientFrame("intruder", []byte(`{"event":"join-room","data":{"room":"user:intruder-user"}}`))
	h.HandleClientFrame("intruder", []byte(`{"event":"join-room","data":{"room":"role:RESIDENT"}}`))

	assert.Equal(t, 1, h.RoomSize(UserRoom("victim-user")))
	assert.Equal(t, 1, h.RoomSize(RoleRoom("ADMIN")))
	assert.Equal(t, 1, h.RoomSize(UserRoom("intruder-user")))

	ctx := context.Background()
	require.NoError(t, h.Dispatch(ctx, event.NotificationCreated,
		json.RawMessage(`{"id":"n1","userId":"victim-user","title":"secret","message":"private"}`)))
	require.NoError(t, h.Dispatch(ctx, event.UserCreated, json.RawMessage(`{"id":"u2","email":"someone@example.com"}`)))

	frames := intruder.received(t)
	require.Len(t, frames, 4)
	assert.Equal(t, EventError, frames[0].Event)
	assert.Equal(t, EventError, frames[1].Event)
	assert.Equal(t, EventJoinedRoom, frames[2].Event)
	assert.Equal(t, EventJoinedRoom, frames[3].Event)

	af := anonymous.received(t)
	require.Len(t, af, 1)
	assert.Equal(t, EventError, af[0].Event)

	assert.Len(t, victim.received(t), 2)
}

func TestHub_RunClosesSessionsOnShutdown(t *testing.T) {
	h := NewHub()
	a, b := newFakeSession("a"), newFakeSession("b")
	h.Register(a)
	h.Register(b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	assert.Equal(t, 0, h.SessionCount())
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
}

func TestWebSocketSession_EndToEnd(t *testing.T) {
	h := fixedHub()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewWebSocketSession(h, conn, "u1", "RESIDENT").Start()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.RoomSize(UserRoom("u1")) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, h.RoomSize(RoleRoom("RESIDENT")))

	require.NoError(t, h.Dispatch(context.Background(), event.NotificationCreated, json.RawMessage(`{"id":"n1","userId":"u1"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "notification.created", f.Event)

	require.NoError(t, conn.WriteJSON(Frame{Event: EventJoinRoom, Data: json.RawMessage(`{"room":"building:A"}`)}))
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, EventJoinedRoom, f.Event)

	conn.Close()
	require.Eventually(t, func() bool { return h.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
