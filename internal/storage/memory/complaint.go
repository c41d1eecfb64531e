package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
)

type ComplaintRepository struct {
	s *Store
}

func copyComplaint(c *complaint.Complaint) *complaint.Complaint {
	out := *c
	if c.AssigneeID != nil {
		id := *c.AssigneeID
		out.AssigneeID = &id
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		out.ResolvedAt = &t
	}
	out.Author = common.UserSummary{}
	out.Assignee = nil
	out.Comments = nil
	out.Attachments = nil
	return &out
}

// hydrate fills relations the way the SQL preloads do; caller holds the lock
func (s *Store) hydrate(stored *complaint.Complaint) *complaint.Complaint {
	c := copyComplaint(stored)
	c.Author = s.summary(c.AuthorID)
	if c.AssigneeID != nil {
		a := s.summary(*c.AssigneeID)
		c.Assignee = &a
	}

	c.Comments = []complaint.Comment{}
	for _, cm := range s.comments {
		if cm.ComplaintID == c.ID {
			out := *cm
			out.Author = s.summary(cm.AuthorID)
			c.Comments = append(c.Comments, out)
		}
	}
	sortBy(c.Comments, func(a, b complaint.Comment) bool { return s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })

	c.Attachments = []complaint.Attachment{}
	for _, a := range s.attachments {
		if a.ComplaintID == c.ID {
			out := *a
			c.Attachments = append(c.Attachments, *out.WithURL())
		}
	}
	sortBy(c.Attachments, func(a, b complaint.Attachment) bool { return s.before(b.ID, b.CreatedAt, a.ID, a.CreatedAt) })
	return c
}

func (r *ComplaintRepository) Create(_ context.Context, c *complaint.Complaint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if _, exists := r.s.complaints[c.ID]; exists {
		return fmt.Errorf("complaint %s: %w", c.ID, common.ErrConflict)
	}
	now := r.s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	if c.Status == "" {
		c.Status = complaint.StatusPending
	}
	if c.Priority == "" {
		c.Priority = complaint.PriorityMedium
	}

	r.s.complaints[c.ID] = copyComplaint(c)
	r.s.stamp(c.ID)
	return nil
}

func (r *ComplaintRepository) GetByID(_ context.Context, id uuid.UUID) (*complaint.Complaint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.complaints[id]
	if !ok {
		return nil, fmt.Errorf("complaint %s: %w", id, common.ErrNotFound)
	}
	return r.s.hydrate(c), nil
}

func (r *ComplaintRepository) List(_ context.Context, filter complaint.Filter) ([]*complaint.Complaint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*complaint.Complaint, 0)
	for _, c := range r.s.complaints {
		if filter.Matches(c) {
			out = append(out, r.s.hydrate(c))
		}
	}
	sortBy(out, func(a, b *complaint.Complaint) bool { return r.s.before(b.ID, b.CreatedAt, a.ID, a.CreatedAt) })
	return out, nil
}

func (r *ComplaintRepository) Update(_ context.Context, c *complaint.Complaint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.complaints[c.ID]
	if !ok {
		return fmt.Errorf("complaint %s: %w", c.ID, common.ErrNotFound)
	}

	patched := copyComplaint(c)
	patched.Apartment = stored.Apartment
	patched.Building = stored.Building
	patched.AuthorID = stored.AuthorID
	patched.CreatedAt = stored.CreatedAt
	r.s.complaints[c.ID] = patched
	return nil
}

func (r *ComplaintRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.complaints[id]; !ok {
		return fmt.Errorf("complaint %s: %w", id, common.ErrNotFound)
	}
	for cid, cm := range r.s.comments {
		if cm.ComplaintID == id {
			delete(r.s.comments, cid)
		}
	}
	for aid, a := range r.s.attachments {
		if a.ComplaintID == id {
			delete(r.s.attachments, aid)
		}
	}
	delete(r.s.complaints, id)
	return nil
}

func (r *ComplaintRepository) Count(_ context.Context, filter complaint.Filter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, c := range r.s.complaints {
		if filter.Matches(c) {
			n++
		}
	}
	return n, nil
}

type CommentRepository struct {
	s *Store
}

func (r *CommentRepository) Create(_ context.Context, c *complaint.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.complaints[c.ComplaintID]; !ok {
		return fmt.Errorf("comment references missing complaint %s: %w", c.ComplaintID, common.ErrBadRequest)
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	c.Author = r.s.summary(c.AuthorID)

	stored := *c
	r.s.comments[c.ID] = &stored
	r.s.stamp(c.ID)
	return nil
}

func (r *CommentRepository) ListByComplaint(_ context.Context, complaintID uuid.UUID) ([]*complaint.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*complaint.Comment, 0)
	for _, cm := range r.s.comments {
		if cm.ComplaintID == complaintID {
			c := *cm
			c.Author = r.s.summary(cm.AuthorID)
			out = append(out, &c)
		}
	}
	sortBy(out, func(a, b *complaint.Comment) bool { return r.s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
	return out, nil
}

type AttachmentRepository struct {
	s *Store
}

func (r *AttachmentRepository) Create(_ context.Context, a *complaint.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.FilePath == "" {
		return fmt.Errorf("attachment file path cannot be empty: %w", common.ErrBadRequest)
	}
	if _, ok := r.s.complaints[a.ComplaintID]; !ok {
		return fmt.Errorf("attachment references missing complaint %s: %w", a.ComplaintID, common.ErrBadRequest)
	}
	for _, existing := range r.s.attachments {
		if existing.FilePath == a.FilePath {
			return fmt.Errorf("attachment path %s: %w", a.FilePath, common.ErrConflict)
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.s.now()
	}

	stored := *a
	stored.URL = ""
	r.s.attachments[a.ID] = &stored
	r.s.stamp(a.ID)
	return nil
}

func (r *AttachmentRepository) GetByID(_ context.Context, id uuid.UUID) (*complaint.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.attachments[id]
	if !ok {
		return nil, fmt.Errorf("attachment %s: %w", id, common.ErrNotFound)
	}
	out := *a
	return out.WithURL(), nil
}

func (r *AttachmentRepository) ListByComplaint(_ context.Context, complaintID uuid.UUID) ([]*complaint.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*complaint.Attachment, 0)
	for _, a := range r.s.attachments {
		if a.ComplaintID == complaintID {
			c := *a
			out = append(out, c.WithURL())
		}
	}
	sortBy(out, func(a, b *complaint.Attachment) bool { return r.s.before(b.ID, b.CreatedAt, a.ID, a.CreatedAt) })
	return out, nil
}

func (r *AttachmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.attachments[id]; !ok {
		return fmt.Errorf("attachment %s: %w", id, common.ErrNotFound)
	}
	delete(r.s.attachments, id)
	return nil
}
