package complaint

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

// Comment is immutable once created
type Comment struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ComplaintID uuid.UUID `json:"complaint_id" gorm:"type:uuid;not null;index"`
	AuthorID    uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	Author common.UserSummary `json:"author" gorm:"foreignKey:AuthorID"`
}

func (Comment) TableName() string {
	return "complaint_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
