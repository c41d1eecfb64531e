package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
)

type NotificationRepository struct {
	s *Store
}

var _ notification.Repository = (*NotificationRepository)(nil)

func copyNotification(n *notification.Notification) *notification.Notification {
	out := *n
	if n.ComplaintID != nil {
		id := *n.ComplaintID
		out.ComplaintID = &id
	}
	if n.ReadAt != nil {
		t := *n.ReadAt
		out.ReadAt = &t
	}
	return &out
}

func (r *NotificationRepository) Create(_ context.Context, n *notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Type == "" {
		n.Type = notification.TypeGeneral
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	r.s.notifications[n.ID] = copyNotification(n)
	r.s.stamp(n.ID)
	return nil
}

func (r *NotificationRepository) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]*notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*notification.Notification, 0)
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, copyNotification(n))
	}
	sortBy(out, func(a, b *notification.Notification) bool {
		return r.s.before(b.ID, b.CreatedAt, a.ID, a.CreatedAt)
	})
	return out, nil
}

// owned returns the stored notification only when it belongs to userID
func (r *NotificationRepository) owned(id, userID uuid.UUID) (*notification.Notification, error) {
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("notification %s: %w", id, common.ErrNotFound)
	}
	return n, nil
}

func (r *NotificationRepository) MarkAsRead(_ context.Context, id, userID uuid.UUID) (*notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, err := r.owned(id, userID)
	if err != nil {
		return nil, err
	}
	if !n.IsRead {
		now := r.s.now()
		n.IsRead = true
		n.ReadAt = &now
	}
	return copyNotification(n), nil
}

func (r *NotificationRepository) MarkAllAsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	var n int64
	for _, item := range r.s.notifications {
		if item.UserID == userID && !item.IsRead {
			at := now
			item.IsRead = true
			item.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.owned(id, userID); err != nil {
		return err
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, item := range r.s.notifications {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}
