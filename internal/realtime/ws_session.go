package realtime

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gravadigital/residencia-api/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// WebSocketSession is a Session backed by a gorilla websocket connection
type WebSocketSession struct {
	id     string
	UserID string
	Role   string

	conn *websocket.Conn
	hub  *Hub
	log  *log.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewWebSocketSession(hub *Hub, conn *websocket.Conn, userID, role string) *WebSocketSession {
	id := uuid.NewString()
	return &WebSocketSession{
		id:     id,
		UserID: userID,
		Role:   role,
		conn:   conn,
		hub:    hub,
		log:    logger.Realtime().With("session", id, "user_id", userID),
		send:   make(chan []byte, sendBufferSize),
	}
}

func (s *WebSocketSession) ID() string { return s.id }

// Identity returns the authenticated user and role the session was opened for
func (s *WebSocketSession) Identity() (userID, role string) { return s.UserID, s.Role }

func (s *WebSocketSession) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which in turn closes the connection
func (s *WebSocketSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// Start registers the session, joins its user and role rooms and starts the pumps
func (s *WebSocketSession) Start() {
	s.hub.Register(s)
	s.hub.Join(s.id, UserRoom(s.UserID))
	s.hub.Join(s.id, RoleRoom(s.Role))

	go s.writePump()
	go s.readPump()
}

func (s *WebSocketSession) readPump() {
	defer func() {
		s.hub.Unregister(s.id)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		s.hub.HandleClientFrame(s.id, message)
	}
}

func (s *WebSocketSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
