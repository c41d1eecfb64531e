package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/auth"
	"github.com/gravadigital/residencia-api/internal/bus"
	"github.com/gravadigital/residencia-api/internal/cache"
	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/handlers"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/middleware/requestlog"
	"github.com/gravadigital/residencia-api/internal/realtime"
	"github.com/gravadigital/residencia-api/internal/services"
	"github.com/gravadigital/residencia-api/internal/storage"
)

// Dependencies are the wired components the router serves
type Dependencies struct {
	Container     storage.Container
	Cache         cache.Cache
	Bus           bus.Client
	Hub           *realtime.Hub
	Complaints    *services.ComplaintService
	Notifications *services.NotificationService
	Residents     *services.ResidentService
	Users         *services.UserService
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	deps       Dependencies
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router := s.Router()

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		// Timeouts seguros según estándares de Go. WriteTimeout queda en cero:
		// las conexiones websocket y las descargas son de larga duración.
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router configures the HTTP router with middleware and routes
func (s *Server) Router() *gin.Engine {
	// Configurar Gin
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if s.config.Server.GinMode != "" {
		gin.SetMode(s.config.Server.GinMode)
	}

	router := gin.New()

	// Middleware básico
	router.Use(requestlog.Middleware())
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	origins := config.SplitList(s.config.CORS.AllowOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	if methods := config.SplitList(s.config.CORS.AllowMethods); len(methods) > 0 {
		corsConfig.AllowMethods = methods
	}
	if headers := config.SplitList(s.config.CORS.AllowHeaders); len(headers) > 0 {
		corsConfig.AllowHeaders = headers
	}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", requestlog.HeaderRequestID}
	router.Use(cors.New(corsConfig))

	// Inicializar handlers
	healthHandler := handlers.NewHealthHandler(s.deps.Container, s.deps.Cache, s.deps.Bus, s.deps.Hub)
	authHandler := handlers.NewAuthHandler(s.deps.Users)
	complaintHandler := handlers.NewComplaintHandler(s.deps.Complaints)
	attachmentHandler := handlers.NewAttachmentHandler(s.deps.Complaints, s.config.Storage.MaxFileSize)
	residentHandler := handlers.NewResidentHandler(s.deps.Residents)
	notificationHandler := handlers.NewNotificationHandler(s.deps.Notifications)
	wsHandler := handlers.NewWebSocketHandler(s.deps.Hub, origins)

	secret := []byte(s.config.Auth.JWTSecret)
	requireAuth := auth.Required(secret)
	staffOnly := auth.RequireRoles(user.RoleManager, user.RoleAdmin)

	// Health check
	router.GET("/ping", healthHandler.Ping)
	router.GET("/health", healthHandler.Health)
	router.GET("/ws", requireAuth, wsHandler.Connect)

	api := router.Group("/api")
	{
		api.GET("/ping", healthHandler.Ping)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", requireAuth, authHandler.Me)
		}

		protected := api.Group("", requireAuth)

		complaints := protected.Group("/complaints")
		{
			complaints.POST("", complaintHandler.Create)
			complaints.GET("", complaintHandler.List)
			complaints.GET("/my-complaints", complaintHandler.Mine)
			complaints.GET("/stats", staffOnly, complaintHandler.Stats)
			complaints.GET("/:id", complaintHandler.Get)
			complaints.PATCH("/:id", complaintHandler.Update)
			complaints.DELETE("/:id", complaintHandler.Delete)
			complaints.POST("/:id/comments", complaintHandler.AddComment)

			complaints.POST("/:id/attachments", attachmentHandler.Upload)
			complaints.GET("/:id/attachments", attachmentHandler.List)
			complaints.GET("/:id/attachments/:attachmentId/download", attachmentHandler.Download)
			complaints.DELETE("/:id/attachments/:attachmentId", attachmentHandler.Delete)
		}

		residents := protected.Group("/residents")
		{
			residents.POST("", residentHandler.Create)
			residents.GET("", staffOnly, residentHandler.List)
			residents.GET("/stats", staffOnly, residentHandler.Stats)
			residents.GET("/me", residentHandler.Me)
			residents.GET("/:id", residentHandler.Get)
			residents.PATCH("/:id", residentHandler.Update)
			residents.DELETE("/:id", residentHandler.Delete)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread", notificationHandler.Unread)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PATCH("/read-all", notificationHandler.MarkAllAsRead)
			notifications.PATCH("/:id/read", notificationHandler.MarkAsRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}

		users := protected.Group("/users")
		{
			users.PATCH("/:id", auth.RequireRoles(user.RoleAdmin), authHandler.UpdateUser)
		}
	}

	return router
}
