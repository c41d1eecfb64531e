// Package realtime pushes domain events to connected websocket clients.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Session is one connected client as seen by the Hub
type Session interface {
	ID() string
	// Send queues a frame without blocking; false means the client is too
	// slow or already gone.
	Send(frame []byte) bool
	Close()
}

// Identified is implemented by sessions bound to an authenticated user.
// Sessions without it may not join private rooms from the client side.
type Identified interface {
	Identity() (userID, role string)
}

// Client event names
const (
	EventJoinRoom   = "join-room"
	EventLeaveRoom  = "leave-room"
	EventJoinedRoom = "joined-room"
	EventLeftRoom   = "left-room"
	EventError      = "error"
)

// Frame is the websocket wire format in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type roomRequest struct {
	Room string `json:"room"`
}

type roomAck struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

type errorFrame struct {
	Message string `json:"message"`
}

// EncodeFrame renders a named event with its data
func EncodeFrame(name string, data any) ([]byte, error) {
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return nil, fmt.Errorf("encode %s frame: %w", name, err)
		}
	}
	return json.Marshal(Frame{Event: name, Data: raw})
}

// UserRoom is joined automatically by every session of a user
func UserRoom(userID string) string {
	return "user:" + userID
}

// RoleRoom is joined automatically by every session of a role
func RoleRoom(role string) string {
	return "role:" + role
}

// isPrivateRoom reports whether room is a per-user or per-role room
func isPrivateRoom(room string) bool {
	return strings.HasPrefix(room, "user:") || strings.HasPrefix(room, "role:")
}

// mayJoin reports whether s may join room on its own request. Private rooms
// are limited to the session's own user and role rooms.
func mayJoin(s Session, room string) bool {
	if !isPrivateRoom(room) {
		return true
	}
	who, ok := s.(Identified)
	if !ok {
		return false
	}
	userID, role := who.Identity()
	return (userID != "" && room == UserRoom(userID)) || (role != "" && room == RoleRoom(role))
}
