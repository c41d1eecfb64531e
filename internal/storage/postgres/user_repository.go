package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// PostgresUserRepository implements user.Repository using GORM
type PostgresUserRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:  db,
		log: logger.Repository("user"),
	}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	r.log.Debug("Creating user", "email", u.Email, "role", u.Role)

	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		r.log.Error("Failed to create user", "error", err, "email", u.Email)
		return translate(err, fmt.Sprintf("user with email %s", u.Email))
	}

	r.log.Info("User created successfully", "id", u.ID, "email", u.Email)
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("user %s", id))
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty: %w", common.ErrBadRequest)
	}

	var u user.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

// ListByRoles returns active users holding any of roles
func (r *PostgresUserRepository) ListByRoles(ctx context.Context, roles ...user.Role) ([]*user.User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	var users []*user.User
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND role IN ?", true, names).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		r.log.Error("Failed to list users by role", "roles", names, "error", err)
		return nil, translate(err, "list users")
	}
	return users, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"role":       string(u.Role),
			"is_active":  u.IsActive,
			"updated_at": u.UpdatedAt,
		})
	if res.Error != nil {
		r.log.Error("Failed to update user", "error", res.Error, "id", u.ID)
		return translate(res.Error, fmt.Sprintf("update user %s", u.ID))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", u.ID, common.ErrNotFound)
	}

	r.log.Info("User updated successfully", "id", u.ID, "role", u.Role, "is_active", u.IsActive)
	return nil
}

func (r *PostgresUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error; err != nil {
		return 0, translate(err, "count users")
	}
	return count, nil
}

var _ user.Repository = (*PostgresUserRepository)(nil)
