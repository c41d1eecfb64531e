package user

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

// Role is the closed set of account roles
type Role string

const (
	RoleResident Role = "RESIDENT"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

// Roles lists every valid role
func Roles() []Role {
	return []Role{RoleResident, RoleManager, RoleAdmin}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a case-insensitive string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q: %w", s, common.ErrBadRequest)
	}
	return r, nil
}

// Scan implements the sql.Scanner interface for database deserialization
func (r *Role) Scan(value any) error {
	if value == nil {
		*r = RoleResident
		return nil
	}
	switch v := value.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// User is an account that can authenticate against the API
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password;not null"`
	Role         Role      `json:"role" gorm:"type:user_role;not null;default:'RESIDENT'"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets a UUID before creating the record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Summary projects the user onto the id/email/role shape embedded elsewhere
func (u *User) Summary() common.UserSummary {
	return common.UserSummary{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

// Caller is the resolved authentication context handed to every service call
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

// Repository defines persistence operations for users
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRoles(ctx context.Context, roles ...Role) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Count(ctx context.Context) (int64, error)
}
