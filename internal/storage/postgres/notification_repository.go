package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// PostgresNotificationRepository implements notification.Repository using GORM
type PostgresNotificationRepository struct {
	db  *gorm.DB
	log *log.Logger
}

func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db, log: logger.Repository("notification")}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		r.log.Error("failed to create notification", "user_id", n.UserID, "error", err)
		return translate(err, "create notification")
	}
	return nil
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*notification.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var notifications []*notification.Notification
	if err := q.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, translate(err, "list notifications")
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return err
		}
		if n.IsRead {
			return nil
		}
		now := time.Now().UTC()
		n.IsRead = true
		n.ReadAt = &now
		return tx.Model(&n).Updates(map[string]any{"is_read": true, "read_at": now}).Error
	})
	if err != nil {
		return nil, translate(err, fmt.Sprintf("notification %s", id))
	}
	return &n, nil
}

func (r *PostgresNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, translate(res.Error, "mark notifications read")
	}
	return res.RowsAffected, nil
}

func (r *PostgresNotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&notification.Notification{})
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("delete notification %s", id))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, translate(err, "count unread notifications")
	}
	return count, nil
}
