package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/bus"
	"github.com/gravadigital/residencia-api/internal/cache"
	"github.com/gravadigital/residencia-api/internal/realtime"
	"github.com/gravadigital/residencia-api/internal/storage"
)

type HealthHandler struct {
	container storage.Container
	cache     cache.Cache
	bus       bus.Client
	hub       *realtime.Hub
}

func NewHealthHandler(container storage.Container, c cache.Cache, client bus.Client, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{container: container, cache: c, bus: client, hub: hub}
}

// Ping handles GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Health handles GET /health. A failing database answers 503; cache and bus
// are optional and only reported.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status, overall := http.StatusOK, "ok"
	database := gin.H{"status": "up"}
	if err := h.container.Health(ctx); err != nil {
		status, overall = http.StatusServiceUnavailable, "degraded"
		database = gin.H{"status": "down", "error": err.Error()}
	}
	for k, v := range h.container.Info() {
		database[k] = v
	}

	_, noop := h.cache.(cache.Noop)

	c.JSON(status, gin.H{
		"status":   overall,
		"database": database,
		"cache":    gin.H{"enabled": !noop},
		"bus":      gin.H{"connected": h.bus.Connected()},
		"realtime": gin.H{"sessions": h.hub.SessionCount()},
	})
}
