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

// PostgresComplaintRepository implements complaint.Repository using GORM
type PostgresComplaintRepository struct {
	db  *gorm.DB
	log *log.Logger
}

func NewPostgresComplaintRepository(db *gorm.DB) *PostgresComplaintRepository {
	return &PostgresComplaintRepository{
		db:  db,
		log: logger.Repository("complaint"),
	}
}

// withRelations preloads everything a complaint read returns
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Assignee").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.Author").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		})
}

// applyFilter narrows a query to the set fields of f
func applyFilter(db *gorm.DB, f complaint.Filter) *gorm.DB {
	if f.Status != nil {
		db = db.Where("status = ?", string(*f.Status))
	}
	if f.Priority != nil {
		db = db.Where("priority = ?", string(*f.Priority))
	}
	if f.Category != nil {
		db = db.Where("category = ?", string(*f.Category))
	}
	if f.Building != nil {
		db = db.Where("building = ?", *f.Building)
	}
	if f.AuthorID != nil {
		db = db.Where("author_id = ?", *f.AuthorID)
	}
	return db
}

func withURLs(c *complaint.Complaint) *complaint.Complaint {
	for i := range c.Attachments {
		c.Attachments[i].WithURL()
	}
	return c
}

func (r *PostgresComplaintRepository) Create(ctx context.Context, c *complaint.Complaint) error {
	r.log.Debug("creating complaint", "author_id", c.AuthorID, "category", c.Category)

	if err := r.db.WithContext(ctx).Omit("Author", "Assignee", "Comments", "Attachments").Create(c).Error; err != nil {
		r.log.Error("failed to create complaint", "author_id", c.AuthorID, "error", err)
		return translate(err, "create complaint")
	}

	r.log.Info("complaint created", "complaint_id", c.ID)
	return nil
}

func (r *PostgresComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*complaint.Complaint, error) {
	var c complaint.Complaint
	if err := withRelations(r.db.WithContext(ctx)).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("complaint %s", id))
	}
	return withURLs(&c), nil
}

func (r *PostgresComplaintRepository) List(ctx context.Context, filter complaint.Filter) ([]*complaint.Complaint, error) {
	var complaints []*complaint.Complaint
	q := applyFilter(withRelations(r.db.WithContext(ctx)), filter)
	if err := q.Order("created_at DESC").Find(&complaints).Error; err != nil {
		r.log.Error("failed to list complaints", "error", err)
		return nil, translate(err, "list complaints")
	}
	for _, c := range complaints {
		withURLs(c)
	}

	r.log.Debug("complaints listed", "count", len(complaints))
	return complaints, nil
}

// Update writes only the columns an update may change. Concurrent updates
// race and the last write wins.
func (r *PostgresComplaintRepository) Update(ctx context.Context, c *complaint.Complaint) error {
	res := r.db.WithContext(ctx).
		Model(&complaint.Complaint{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"title":       c.Title,
			"description": c.Description,
			"status":      string(c.Status),
			"priority":    string(c.Priority),
			"category":    string(c.Category),
			"assignee_id": c.AssigneeID,
			"resolved_at": c.ResolvedAt,
			"updated_at":  c.UpdatedAt,
		})
	if res.Error != nil {
		r.log.Error("failed to update complaint", "complaint_id", c.ID, "error", res.Error)
		return translate(res.Error, fmt.Sprintf("update complaint %s", c.ID))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("complaint %s: %w", c.ID, common.ErrNotFound)
	}

	r.log.Debug("complaint updated", "complaint_id", c.ID, "status", c.Status)
	return nil
}

func (r *PostgresComplaintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("complaint_id = ?", id).Delete(&complaint.Attachment{}).Error; err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		if err := tx.Where("complaint_id = ?", id).Delete(&complaint.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&complaint.Complaint{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to delete complaint", "complaint_id", id, "error", err)
		return translate(err, fmt.Sprintf("delete complaint %s", id))
	}

	r.log.Info("complaint deleted", "complaint_id", id)
	return nil
}

func (r *PostgresComplaintRepository) Count(ctx context.Context, filter complaint.Filter) (int64, error) {
	var count int64
	q := applyFilter(r.db.WithContext(ctx).Model(&complaint.Complaint{}), filter)
	if err := q.Count(&count).Error; err != nil {
		return 0, translate(err, "count complaints")
	}
	return count, nil
}

// PostgresCommentRepository implements complaint.CommentRepository
type PostgresCommentRepository struct {
	db  *gorm.DB
	log *log.Logger
}

func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db, log: logger.Repository("comment")}
}

func (r *PostgresCommentRepository) Create(ctx context.Context, c *complaint.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(c).Error; err != nil {
		r.log.Error("failed to create comment", "complaint_id", c.ComplaintID, "error", err)
		return translate(err, "create comment")
	}
	// Return the comment with its author projection
	if err := r.db.WithContext(ctx).Preload("Author").First(c, "id = ?", c.ID).Error; err != nil {
		return translate(err, "reload comment")
	}
	return nil
}

func (r *PostgresCommentRepository) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*complaint.Comment, error) {
	var comments []*complaint.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, translate(err, "list comments")
	}
	return comments, nil
}
