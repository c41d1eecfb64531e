package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/residencia-api/internal/bus"
	"github.com/gravadigital/residencia-api/internal/cache"
	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/objectstore"
	"github.com/gravadigital/residencia-api/internal/realtime"
	"github.com/gravadigital/residencia-api/internal/server"
	"github.com/gravadigital/residencia-api/internal/services"
	"github.com/gravadigital/residencia-api/internal/storage"
)

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)
	log := logger.Get()

	log.Info("Starting residencia API", "environment", cfg.Server.Environment)

	storageType, err := storage.ValidateStorageType(cfg.Storage.Type)
	if err != nil {
		log.Fatal("Invalid storage configuration", "error", err)
	}
	container, err := storage.NewFactory(storageType).CreateContainer(cfg)
	if err != nil {
		log.Fatal("Failed to create storage container", "error", err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	store, err := objectstore.New(rootCtx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize object store", "error", err)
	}

	c := cache.New(rootCtx, cfg)
	client := bus.Connect(rootCtx, cfg)

	hub := realtime.NewHub()
	go hub.Run(rootCtx)

	// Local consumers of domain events. When a broker is attached the hub is
	// fed by the subscription so every instance relays every event exactly
	// once; notifications are derived only by the instance that published.
	local := event.NewFanout()
	publisher := bus.NewLoopback(client, local)

	complaintService := services.NewComplaintService(services.ComplaintRepositories{
		Complaints:  container.Complaints(),
		Comments:    container.Comments(),
		Attachments: container.Attachments(),
		Residents:   container.Residents(),
	}, store, c, publisher).WithCacheTTL(cfg.Cache.TTL)
	notificationService := services.NewNotificationService(container.Notifications(), container.Users(), publisher)
	residentService := services.NewResidentService(container.Residents(), container.Complaints())
	userService := services.NewUserService(container.Users(), publisher, []byte(cfg.Auth.JWTSecret), cfg.Auth.JWTTTL)

	local.Add(notificationService)

	busCtx, cancelBus := context.WithCancel(rootCtx)
	if client.Connected() {
		go func() {
			if err := bus.Relay(busCtx, client, hub); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Event relay stopped", "error", err)
			}
		}()
	} else {
		local.Add(hub)
	}

	responders := map[event.Topic]bus.ResponderFunc{
		event.GetComplaintStats: complaintService.ServeStats,
		event.GetUserStats:      residentService.ServeStats,
	}
	for topic, fn := range responders {
		go func(topic event.Topic, fn bus.ResponderFunc) {
			if err := client.Respond(busCtx, topic, fn); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Responder stopped", "topic", topic, "error", err)
			}
		}(topic, fn)
	}

	srv := server.New(cfg, server.Dependencies{
		Container:     container,
		Cache:         c,
		Bus:           client,
		Hub:           hub,
		Complaints:    complaintService,
		Notifications: notificationService,
		Residents:     residentService,
		Users:         userService,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	cancelBus()
	hub.Close()

	if err := client.Close(); err != nil {
		log.Warn("Failed to close bus client", "error", err)
	}
	if err := c.Close(); err != nil {
		log.Warn("Failed to close cache", "error", err)
	}
	if err := container.Close(); err != nil {
		log.Warn("Failed to close storage", "error", err)
	}

	log.Info("Server exited")
}
