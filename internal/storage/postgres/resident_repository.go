package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// PostgresResidentRepository implements resident.Repository using GORM
type PostgresResidentRepository struct {
	db  *gorm.DB
	log *log.Logger
}

func NewPostgresResidentRepository(db *gorm.DB) *PostgresResidentRepository {
	return &PostgresResidentRepository{db: db, log: logger.Repository("resident")}
}

func (r *PostgresResidentRepository) Create(ctx context.Context, res *resident.Resident) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(res).Error; err != nil {
		r.log.Error("failed to create resident", "user_id", res.UserID, "error", err)
		return translate(err, fmt.Sprintf("resident profile for user %s", res.UserID))
	}
	r.log.Info("resident created", "resident_id", res.ID, "user_id", res.UserID)
	return nil
}

func (r *PostgresResidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*resident.Resident, error) {
	var res resident.Resident
	if err := r.db.WithContext(ctx).Preload("User").First(&res, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("resident %s", id))
	}
	return &res, nil
}

func (r *PostgresResidentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*resident.Resident, error) {
	var res resident.Resident
	if err := r.db.WithContext(ctx).Preload("User").First(&res, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("resident profile for user %s", userID))
	}
	return &res, nil
}

func (r *PostgresResidentRepository) List(ctx context.Context) ([]*resident.Resident, error) {
	var residents []*resident.Resident
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("building ASC, apartment ASC").
		Find(&residents).Error; err != nil {
		r.log.Error("failed to list residents", "error", err)
		return nil, translate(err, "list residents")
	}
	return residents, nil
}

func (r *PostgresResidentRepository) Update(ctx context.Context, res *resident.Resident) error {
	result := r.db.WithContext(ctx).
		Model(&resident.Resident{}).
		Where("id = ?", res.ID).
		Updates(map[string]any{
			"first_name":     res.FirstName,
			"last_name":      res.LastName,
			"phone":          res.Phone,
			"apartment":      res.Apartment,
			"floor":          res.Floor,
			"building":       res.Building,
			"move_in_date":   res.MoveInDate,
			"is_owner":       res.IsOwner,
			"family_members": res.FamilyMembers,
			"updated_at":     res.UpdatedAt,
		})
	if result.Error != nil {
		r.log.Error("failed to update resident", "resident_id", res.ID, "error", result.Error)
		return translate(result.Error, fmt.Sprintf("update resident %s", res.ID))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("resident %s: %w", res.ID, common.ErrNotFound)
	}
	return nil
}

func (r *PostgresResidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&resident.Resident{})
	if result.Error != nil {
		return translate(result.Error, fmt.Sprintf("delete resident %s", id))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("resident %s: %w", id, common.ErrNotFound)
	}
	r.log.Info("resident deleted", "resident_id", id)
	return nil
}

func (r *PostgresResidentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&resident.Resident{}).Count(&count).Error; err != nil {
		return 0, translate(err, "count residents")
	}
	return count, nil
}
