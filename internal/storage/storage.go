package storage

import (
	"context"

	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
)

// Container groups every repository of one storage backend
type Container interface {
	Complaints() complaint.Repository
	Comments() complaint.CommentRepository
	Attachments() complaint.AttachmentRepository
	Residents() resident.Repository
	Users() user.Repository
	Notifications() notification.Repository

	Health(ctx context.Context) error
	Info() map[string]any
	Close() error
}
