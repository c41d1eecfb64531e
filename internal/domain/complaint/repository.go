package complaint

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for complaints. Reads return the complaint
// with author/assignee projections, comments (oldest first) and attachments.
type Repository interface {
	Create(ctx context.Context, c *Complaint) error
	GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error)
	// List returns matching complaints, newest first
	List(ctx context.Context, filter Filter) ([]*Complaint, error)
	// Update writes the mutable columns only; apartment and building are never touched
	Update(ctx context.Context, c *Complaint) error
	// Delete removes the complaint along with its comments and attachments
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter Filter) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*Comment, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, a *Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error)
	// ListByComplaint returns attachments newest first
	ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
