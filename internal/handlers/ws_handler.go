package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/realtime"
)

// WebSocketHandler upgrades authenticated requests into realtime sessions
type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *log.Logger
}

// NewWebSocketHandler accepts upgrades from the listed origins. A "*" entry
// or an empty list accepts any origin.
func NewWebSocketHandler(hub *realtime.Hub, allowedOrigins []string) *WebSocketHandler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		log: logger.Handler("websocket"),
	}
}

// Connect handles GET /ws
func (h *WebSocketHandler) Connect(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.Warn("websocket upgrade failed", "user_id", caller.UserID, "error", err)
		return
	}

	session := realtime.NewWebSocketSession(h.hub, conn, caller.UserID.String(), string(caller.Role))
	session.Start()
}
