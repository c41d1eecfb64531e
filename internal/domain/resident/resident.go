package resident

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

// Resident is the tenancy record linked one-to-one with a user account. Its
// apartment and building are copied into every complaint the user files.
type Resident struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID        uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	FirstName     string         `json:"first_name" gorm:"not null"`
	LastName      string         `json:"last_name" gorm:"not null"`
	Phone         string         `json:"phone"`
	Apartment     string         `json:"apartment" gorm:"not null"`
	Floor         int            `json:"floor"`
	Building      string         `json:"building" gorm:"not null"`
	MoveInDate    time.Time      `json:"move_in_date"`
	IsOwner       bool           `json:"is_owner" gorm:"not null;default:false"`
	FamilyMembers pq.StringArray `json:"family_members" gorm:"type:text[]"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime"`

	User common.UserSummary `json:"user" gorm:"foreignKey:UserID"`
}

// TableName overrides the table name used by GORM
func (Resident) TableName() string {
	return "residents"
}

// BeforeCreate sets a UUID before creating the record
func (r *Resident) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Stats summarises residents and their complaint load
type Stats struct {
	TotalResidents    int64 `json:"totalResidents"`
	TotalComplaints   int64 `json:"totalComplaints"`
	PendingComplaints int64 `json:"pendingComplaints"`
}

// Repository defines persistence for resident profiles
type Repository interface {
	Create(ctx context.Context, r *Resident) error
	GetByID(ctx context.Context, id uuid.UUID) (*Resident, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Resident, error)
	List(ctx context.Context) ([]*Resident, error)
	Update(ctx context.Context, r *Resident) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}
