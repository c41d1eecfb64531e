package complaint

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

// Status is the lifecycle state of a complaint. Any status may follow any
// other; update does not reject transitions.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Category string

const (
	CategoryMaintenance Category = "MAINTENANCE"
	CategorySecurity    Category = "SECURITY"
	CategoryCleaning    Category = "CLEANING"
	CategoryNoise       Category = "NOISE"
	CategoryOther       Category = "OTHER"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMaintenance, CategorySecurity, CategoryCleaning, CategoryNoise, CategoryOther:
		return true
	}
	return false
}

// Complaint is a resident-filed issue report.
//
// Apartment and Building are copied from the author's resident profile at
// creation and never written again through the complaint API. ResolvedAt is
// non-nil exactly when Status is RESOLVED.
type Complaint struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description" gorm:"type:text;not null"`
	Category    Category   `json:"category" gorm:"type:complaint_category;not null"`
	Priority    Priority   `json:"priority" gorm:"type:complaint_priority;not null;default:'MEDIUM'"`
	Status      Status     `json:"status" gorm:"type:complaint_status;not null;default:'PENDING'"`
	Apartment   string     `json:"apartment" gorm:"not null"`
	Building    string     `json:"building" gorm:"not null"`
	AuthorID    uuid.UUID  `json:"author_id" gorm:"type:uuid;not null;index"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" gorm:"type:uuid"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	ResolvedAt  *time.Time `json:"resolved_at"`

	// Relations
	Author      common.UserSummary  `json:"author" gorm:"foreignKey:AuthorID"`
	Assignee    *common.UserSummary `json:"assignee" gorm:"foreignKey:AssigneeID"`
	Comments    []Comment           `json:"comments" gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE"`
	Attachments []Attachment        `json:"attachments" gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name used by GORM
func (Complaint) TableName() string {
	return "complaints"
}

// BeforeCreate sets a UUID before creating the record
func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsAuthor checks if the given user ID authored this complaint
func (c *Complaint) IsAuthor(userID uuid.UUID) bool {
	return c.AuthorID == userID
}

// Patch carries the optional fields of an update. Nil fields are left alone.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	Category    *Category
	AssigneeID  *uuid.UUID
}

// Validate checks the patched values only
func (p Patch) Validate() error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := ValidateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("invalid status %q: %w", *p.Status, common.ErrBadRequest)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("invalid priority %q: %w", *p.Priority, common.ErrBadRequest)
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("invalid category %q: %w", *p.Category, common.ErrBadRequest)
	}
	return nil
}

// Apply writes the patch onto the complaint and recomputes ResolvedAt from
// the resulting status, whether or not the status was part of the patch.
func (c *Complaint) Apply(p Patch, now time.Time) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.AssigneeID != nil {
		id := *p.AssigneeID
		c.AssigneeID = &id
	}

	if c.Status == StatusResolved {
		resolved := now
		c.ResolvedAt = &resolved
	} else {
		c.ResolvedAt = nil
	}
	c.UpdatedAt = now
}

// Filter narrows a complaint listing. Nil fields impose no constraint.
type Filter struct {
	Status   *Status
	Priority *Priority
	Category *Category
	Building *string
	AuthorID *uuid.UUID
}

// Matches reports whether c satisfies every set field of f
func (f Filter) Matches(c *Complaint) bool {
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Priority != nil && c.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && c.Category != *f.Category {
		return false
	}
	if f.Building != nil && c.Building != *f.Building {
		return false
	}
	if f.AuthorID != nil && c.AuthorID != *f.AuthorID {
		return false
	}
	return true
}

// WithStatus returns a copy of f constrained to status s
func (f Filter) WithStatus(s Status) Filter {
	f.Status = &s
	return f
}

// Stats are independent counts over the whole complaint set
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
	Closed     int64 `json:"closed"`
}

func ValidateTitle(title string) error {
	if len([]rune(strings.TrimSpace(title))) < 5 {
		return fmt.Errorf("title must be at least 5 characters long: %w", common.ErrBadRequest)
	}
	return nil
}

func ValidateDescription(description string) error {
	if len([]rune(strings.TrimSpace(description))) < 10 {
		return fmt.Errorf("description must be at least 10 characters long: %w", common.ErrBadRequest)
	}
	return nil
}

// StorageKey builds the object store key for an uploaded file. The millisecond
// prefix keeps repeated uploads of the same name apart and the complaint id
// groups blobs per complaint.
func StorageKey(complaintID uuid.UUID, now time.Time, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%d_%s", complaintID, now.UnixMilli(), name)
}

// DownloadURL is the client-facing reference to an attachment's bytes
func DownloadURL(complaintID, attachmentID uuid.UUID) string {
	return fmt.Sprintf("/complaints/%s/attachments/%s/download", complaintID, attachmentID)
}
