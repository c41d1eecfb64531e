package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// PostgresAttachmentRepository implements complaint.AttachmentRepository using GORM
type PostgresAttachmentRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresAttachmentRepository creates a new PostgreSQL attachment repository
func NewPostgresAttachmentRepository(db *gorm.DB) *PostgresAttachmentRepository {
	return &PostgresAttachmentRepository{
		db:  db,
		log: logger.Repository("attachment"),
	}
}

func (r *PostgresAttachmentRepository) Create(ctx context.Context, a *complaint.Attachment) error {
	r.log.Debug("creating new attachment", "complaint_id", a.ComplaintID, "file_name", a.FileName)

	if a.FilePath == "" {
		return fmt.Errorf("attachment file path cannot be empty: %w", common.ErrBadRequest)
	}
	if a.FileSize < 0 {
		return fmt.Errorf("attachment file size cannot be negative: %w", common.ErrBadRequest)
	}

	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		r.log.Error("failed to create attachment", "complaint_id", a.ComplaintID, "error", err)
		return translate(err, "create attachment")
	}

	r.log.Info("attachment created successfully", "attachment_id", a.ID, "file_name", a.FileName)
	return nil
}

func (r *PostgresAttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*complaint.Attachment, error) {
	var a complaint.Attachment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("attachment %s", id))
	}
	return a.WithURL(), nil
}

func (r *PostgresAttachmentRepository) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*complaint.Attachment, error) {
	var attachments []*complaint.Attachment
	if err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at DESC").
		Find(&attachments).Error; err != nil {
		r.log.Error("failed to list attachments", "complaint_id", complaintID, "error", err)
		return nil, translate(err, "list attachments")
	}
	for _, a := range attachments {
		a.WithURL()
	}
	return attachments, nil
}

func (r *PostgresAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&complaint.Attachment{})
	if res.Error != nil {
		r.log.Error("failed to delete attachment", "attachment_id", id, "error", res.Error)
		return translate(res.Error, fmt.Sprintf("delete attachment %s", id))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("attachment %s: %w", id, common.ErrNotFound)
	}

	r.log.Info("attachment deleted successfully", "attachment_id", id)
	return nil
}
