package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/bus"
	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/validation"
)

// NotificationService maneja las notificaciones por usuario y las deriva de
// los eventos de reclamos.
type NotificationService struct {
	notifications notification.Repository
	users         user.Repository
	publisher     bus.Publisher
	log           *log.Logger
}

var _ event.Dispatcher = (*NotificationService)(nil)

// NewNotificationService crea una nueva instancia del servicio de notificaciones
func NewNotificationService(notifications notification.Repository, users user.Repository, publisher bus.Publisher) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		log:           logger.Service("notification"),
	}
}

// CreateNotificationRequest representa una solicitud para crear una notificación
type CreateNotificationRequest struct {
	UserID      uuid.UUID
	Title       string
	Message     string
	Type        notification.Type
	ComplaintID *uuid.UUID
}

// Create guarda una notificación y publica notification.created
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*notification.Notification, error) {
	if err := validation.ValidateRequired(req.Title, "title"); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequired(req.Message, "message"); err != nil {
		return nil, err
	}

	kind := req.Type
	if kind == "" {
		kind = notification.TypeGeneral
	}

	n := &notification.Notification{
		UserID:      req.UserID,
		Title:       req.Title,
		Message:     req.Message,
		Type:        kind,
		ComplaintID: req.ComplaintID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, event.NotificationCreated, event.NewNotificationEvent(n))
	s.log.Debug("notification created", "notification_id", n.ID, "user_id", n.UserID, "type", n.Type)
	return n, nil
}

// FindByUser lista todas las notificaciones del usuario
func (s *NotificationService) FindByUser(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, false)
}

// FindUnreadByUser lista las notificaciones no leídas
func (s *NotificationService) FindUnreadByUser(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, true)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (*notification.Notification, error) {
	return s.notifications.MarkAsRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifications.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Remove(ctx context.Context, id, userID uuid.UUID) error {
	return s.notifications.Delete(ctx, id, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// Dispatch deriva notificaciones a partir de eventos de reclamos
func (s *NotificationService) Dispatch(ctx context.Context, topic event.Topic, payload json.RawMessage) error {
	switch topic {
	case event.ComplaintCreated:
		var e event.ComplaintEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode %s: %w", topic, err)
		}
		return s.notifyStaff(ctx, e)

	case event.ComplaintUpdated:
		var e event.ComplaintEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode %s: %w", topic, err)
		}
		if e.ActorID != "" && e.ActorID == e.AuthorID {
			return nil
		}
		return s.notifyAuthor(ctx, e.AuthorID, e.ID, notification.TypeComplaintUpdated,
			"Complaint updated", updateMessage(e))

	case event.ComplaintDeleted:
		var e event.ComplaintDeletedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode %s: %w", topic, err)
		}
		return s.notifyAuthor(ctx, e.UserID, e.ID, notification.TypeComplaintDeleted,
			"Complaint deleted",
			"Your complaint was deleted")
	}
	return nil
}

// notifyStaff avisa a cada MANAGER y ADMIN activo de un reclamo nuevo
func (s *NotificationService) notifyStaff(ctx context.Context, e event.ComplaintEvent) error {
	complaintID, err := uuid.Parse(e.ID)
	if err != nil {
		return fmt.Errorf("invalid complaint id %q: %w", e.ID, err)
	}

	staff, err := s.users.ListByRoles(ctx, user.RoleManager, user.RoleAdmin)
	if err != nil {
		return err
	}

	var errs []error
	for _, u := range staff {
		_, err := s.Create(ctx, CreateNotificationRequest{
			UserID:      u.ID,
			Title:       "New complaint",
			Message:     fmt.Sprintf("New %s complaint in %s %s: %s", e.Category, e.Building, e.Apartment, e.Title),
			Type:        notification.TypeComplaintCreated,
			ComplaintID: &complaintID,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func updateMessage(e event.ComplaintEvent) string {
	switch e.Change {
	case event.ChangeComment:
		return fmt.Sprintf("New comment on your complaint %q", e.Title)
	case event.ChangeAttachment:
		return fmt.Sprintf("Attachments changed on your complaint %q", e.Title)
	}
	return fmt.Sprintf("Your complaint %q is now %s", e.Title, e.Status)
}

func (s *NotificationService) notifyAuthor(ctx context.Context, authorID, complaintID string, kind notification.Type, title, message string) error {
	uid, err := uuid.Parse(authorID)
	if err != nil {
		return fmt.Errorf("invalid author id %q: %w", authorID, err)
	}
	cid, err := uuid.Parse(complaintID)
	if err != nil {
		return fmt.Errorf("invalid complaint id %q: %w", complaintID, err)
	}

	_, err = s.Create(ctx, CreateNotificationRequest{
		UserID:      uid,
		Title:       title,
		Message:     message,
		Type:        kind,
		ComplaintID: &cid,
	})
	return err
}
