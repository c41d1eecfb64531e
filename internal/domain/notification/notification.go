package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Type string

const (
	TypeGeneral          Type = "GENERAL"
	TypeComplaintCreated Type = "COMPLAINT_CREATED"
	TypeComplaintUpdated Type = "COMPLAINT_UPDATED"
	TypeComplaintDeleted Type = "COMPLAINT_DELETED"
)

// Notification is a per-user message, usually derived from a domain event
type Notification struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Message     string     `json:"message" gorm:"type:text;not null"`
	Type        Type       `json:"type" gorm:"not null;default:'GENERAL'"`
	ComplaintID *uuid.UUID `json:"complaint_id,omitempty" gorm:"type:uuid"`
	IsRead      bool       `json:"is_read" gorm:"not null;default:false"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Repository defines persistence for notifications. Every mutation is scoped
// to the owning user; touching another user's notification is NotFound.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}
