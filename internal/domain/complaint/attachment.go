package complaint

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment is the metadata row for a file stored in the object store.
// FilePath is the opaque storage key and never leaves the server; clients get
// URL instead.
type Attachment struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ComplaintID uuid.UUID `json:"complaint_id" gorm:"type:uuid;not null;index"`
	UploaderID  uuid.UUID `json:"uploader_id" gorm:"type:uuid;not null"`
	FileName    string    `json:"file_name" gorm:"not null"`
	FilePath    string    `json:"-" gorm:"not null;uniqueIndex"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	MimeType    string    `json:"mime_type" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	URL string `json:"url" gorm:"-"`
}

// TableName overrides the table name
func (Attachment) TableName() string {
	return "complaint_attachments"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// WithURL fills the synthesized download reference
func (a *Attachment) WithURL() *Attachment {
	a.URL = DownloadURL(a.ComplaintID, a.ID)
	return a
}

// BelongsTo reports whether the attachment is filed under complaintID
func (a *Attachment) BelongsTo(complaintID uuid.UUID) bool {
	return a.ComplaintID == complaintID
}
