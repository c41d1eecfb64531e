package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// Hub tracks live sessions and room membership. Delivery is at most once: a
// session that cannot take a frame right away is dropped.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]Session
	rooms    map[string]map[string]struct{}
	// memberships mirrors rooms per session so Unregister is O(rooms joined)
	memberships map[string]map[string]struct{}

	now func() time.Time
	log *log.Logger
}

func NewHub() *Hub {
	return &Hub{
		sessions:    make(map[string]Session),
		rooms:       make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
		now:         time.Now,
		log:         logger.Realtime(),
	}
}

func (h *Hub) Register(s Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.memberships[s.ID()] = make(map[string]struct{})
	count := len(h.sessions)
	h.mu.Unlock()

	h.log.Info("client connected", "session", s.ID(), "sessions", count)
}

// Unregister removes the session from every room and closes it. Unknown ids
// are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.removeLocked(id)
	count := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	h.log.Info("client disconnected", "session", id, "sessions", count)
}

func (h *Hub) removeLocked(id string) (Session, bool) {
	s, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	for room := range h.memberships[id] {
		members := h.rooms[room]
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.memberships, id)
	delete(h.sessions, id)
	return s, true
}

// Join adds a registered session to room
func (h *Hub) Join(id, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[id]; !ok || room == "" {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[id] = struct{}{}
	h.memberships[id][room] = struct{}{}
	return true
}

func (h *Hub) Leave(id, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined, ok := h.memberships[id]; ok {
		delete(joined, room)
	}
}

// BroadcastEvent sends to every session and returns how many took the frame
func (h *Hub) BroadcastEvent(name string, data any) int {
	frame, err := EncodeFrame(name, data)
	if err != nil {
		h.log.Error("failed to encode broadcast", "event", name, "error", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := h.deliver(targets, frame)
	h.log.Debug("broadcast event", "event", name, "delivered", delivered)
	return delivered
}

// BroadcastToRoom sends to the members of room only
func (h *Hub) BroadcastToRoom(room, name string, data any) int {
	frame, err := EncodeFrame(name, data)
	if err != nil {
		h.log.Error("failed to encode room broadcast", "event", name, "room", room, "error", err)
		return 0
	}

	h.mu.RLock()
	members := h.rooms[room]
	targets := make([]Session, 0, len(members))
	for id := range members {
		if s, ok := h.sessions[id]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	delivered := h.deliver(targets, frame)
	h.log.Debug("broadcast to room", "event", name, "room", room, "delivered", delivered)
	return delivered
}

// SendToClient reports false when the session is unknown or was dropped
func (h *Hub) SendToClient(id, name string, data any) bool {
	frame, err := EncodeFrame(name, data)
	if err != nil {
		h.log.Error("failed to encode frame", "event", name, "session", id, "error", err)
		return false
	}

	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return h.deliver([]Session{s}, frame) == 1
}

func (h *Hub) deliver(targets []Session, frame []byte) int {
	delivered := 0
	for _, s := range targets {
		if s.Send(frame) {
			delivered++
			continue
		}
		h.log.Warn("client buffer full, dropping session", "session", s.ID())
		h.Unregister(s.ID())
	}
	return delivered
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// HandleClientFrame processes one frame sent by the session
func (h *Hub) HandleClientFrame(id string, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		h.log.Warn("undecodable client frame", "session", id, "error", err)
		h.SendToClient(id, EventError, errorFrame{Message: "invalid frame"})
		return
	}

	switch f.Event {
	case EventJoinRoom, EventLeaveRoom:
		var req roomRequest
		if err := json.Unmarshal(f.Data, &req); err != nil || req.Room == "" {
			h.SendToClient(id, EventError, errorFrame{Message: "room is required"})
			return
		}
		if f.Event == EventJoinRoom {
			h.mu.RLock()
			s, ok := h.sessions[id]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if !mayJoin(s, req.Room) {
				h.log.Warn("rejected private room join", "session", id, "room", req.Room)
				h.SendToClient(id, EventError, errorFrame{Message: "not allowed to join room: " + req.Room})
				return
			}
			h.Join(id, req.Room)
			h.log.Debug("client joined room", "session", id, "room", req.Room)
			h.SendToClient(id, EventJoinedRoom, roomAck{Room: req.Room, Message: "Joined room: " + req.Room})
			return
		}
		h.Leave(id, req.Room)
		h.log.Debug("client left room", "session", id, "room", req.Room)
		h.SendToClient(id, EventLeftRoom, roomAck{Room: req.Room, Message: "Left room: " + req.Room})
	default:
		h.log.Debug("ignoring client event", "session", id, "event", f.Event)
	}
}

// Dispatch routes a domain event to the sessions that should see it
func (h *Hub) Dispatch(_ context.Context, topic event.Topic, payload json.RawMessage) error {
	env := event.NewEnvelope(topic, payload, h.now())

	switch {
	case topic.IsComplaint():
		h.BroadcastEvent(topic.String(), env)
	case topic == event.NotificationCreated:
		var n struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(payload, &n); err != nil {
			return fmt.Errorf("decode notification event: %w", err)
		}
		if n.UserID == "" {
			return fmt.Errorf("notification event without recipient")
		}
		h.BroadcastToRoom(UserRoom(n.UserID), topic.String(), env)
	case topic.IsUser():
		h.BroadcastToRoom(RoleRoom(user.RoleAdmin.String()), topic.String(), env)
	default:
		h.log.Debug("no realtime route for topic", "topic", topic)
	}
	return nil
}

// Run blocks until ctx is done, then disconnects every session
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.Close()
}

// Close disconnects every session
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]Session, 0, len(h.sessions))
	for id := range h.sessions {
		if s, ok := h.removeLocked(id); ok {
			sessions = append(sessions, s)
		}
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	if len(sessions) > 0 {
		h.log.Info("closed realtime sessions", "count", len(sessions))
	}
}
