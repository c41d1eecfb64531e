package common

import "github.com/google/uuid"

// UserSummary is the id/email/role projection of a user embedded in other
// entities (complaint author, assignee, resident account).
type UserSummary struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email string    `json:"email" gorm:"uniqueIndex;not null"`
	Role  string    `json:"role" gorm:"type:user_role;not null;default:'RESIDENT'"`
}

// TableName points the projection at the users table. Column tags mirror
// user.User so AutoMigrate sees no drift when it walks the relation.
func (UserSummary) TableName() string {
	return "users"
}
