package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// Container holds every PostgreSQL repository over one connection pool
type Container struct {
	db               *gorm.DB
	log              *log.Logger
	complaintRepo    *PostgresComplaintRepository
	commentRepo      *PostgresCommentRepository
	attachmentRepo   *PostgresAttachmentRepository
	residentRepo     *PostgresResidentRepository
	userRepo         *PostgresUserRepository
	notificationRepo *PostgresNotificationRepository
}

// NewContainer connects, migrates and initializes all repositories
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("Initializing PostgreSQL repository container...")

	db, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)

	if err := container.Health(context.Background()); err != nil {
		log.Error("Container health check failed", "error", err)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:               db,
		log:              logger.Repository("postgres_container"),
		complaintRepo:    NewPostgresComplaintRepository(db),
		commentRepo:      NewPostgresCommentRepository(db),
		attachmentRepo:   NewPostgresAttachmentRepository(db),
		residentRepo:     NewPostgresResidentRepository(db),
		userRepo:         NewPostgresUserRepository(db),
		notificationRepo: NewPostgresNotificationRepository(db),
	}
}

func (c *Container) Complaints() complaint.Repository            { return c.complaintRepo }
func (c *Container) Comments() complaint.CommentRepository       { return c.commentRepo }
func (c *Container) Attachments() complaint.AttachmentRepository { return c.attachmentRepo }
func (c *Container) Residents() resident.Repository              { return c.residentRepo }
func (c *Container) Users() user.Repository                      { return c.userRepo }
func (c *Container) Notifications() notification.Repository      { return c.notificationRepo }

// Health pings the database and touches every table
func (c *Container) Health(ctx context.Context) error {
	if err := HealthCheck(ctx, c.db); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	for _, table := range []string{"users", "residents", "complaints", "complaint_comments", "complaint_attachments", "notifications"} {
		var count int64
		if err := c.db.WithContext(ctx).Table(table).Limit(1).Count(&count).Error; err != nil {
			c.log.Error("Repository health check failed", "table", table, "error", err)
			return fmt.Errorf("table %s health check failed: %w", table, err)
		}
	}
	return nil
}

// Info describes the backend for the health endpoint
func (c *Container) Info() map[string]any {
	return map[string]any{
		"type":     "postgres",
		"database": ConnectionInfo(c.db),
	}
}

// Close shuts down the connection pool
func (c *Container) Close() error {
	c.log.Info("Closing PostgreSQL repository container...")

	if err := CloseDB(c.db); err != nil {
		return err
	}
	c.db = nil
	return nil
}
