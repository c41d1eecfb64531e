// Package memory is a process-local storage backend. All repositories share
// one Store so that reads can join across tables the way the SQL backend does.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
)

// Store holds every table behind a single lock
type Store struct {
	mu sync.RWMutex

	users         map[uuid.UUID]*user.User
	residents     map[uuid.UUID]*resident.Resident
	complaints    map[uuid.UUID]*complaint.Complaint
	comments      map[uuid.UUID]*complaint.Comment
	attachments   map[uuid.UUID]*complaint.Attachment
	notifications map[uuid.UUID]*notification.Notification

	// seq breaks CreatedAt ties so listings are stable
	seq     map[uuid.UUID]uint64
	nextSeq uint64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*user.User),
		residents:     make(map[uuid.UUID]*resident.Resident),
		complaints:    make(map[uuid.UUID]*complaint.Complaint),
		comments:      make(map[uuid.UUID]*complaint.Comment),
		attachments:   make(map[uuid.UUID]*complaint.Attachment),
		notifications: make(map[uuid.UUID]*notification.Notification),
		seq:           make(map[uuid.UUID]uint64),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) stamp(id uuid.UUID) {
	s.nextSeq++
	s.seq[id] = s.nextSeq
}

// before orders a ahead of b by creation time, then insertion order
func (s *Store) before(aID uuid.UUID, aAt time.Time, bID uuid.UUID, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return s.seq[aID] < s.seq[bID]
}

func (s *Store) summary(id uuid.UUID) common.UserSummary {
	if u, ok := s.users[id]; ok {
		return u.Summary()
	}
	return common.UserSummary{ID: id}
}

// Container exposes the store through the repository interfaces
type Container struct {
	store *Store
}

func NewContainer() *Container {
	return &Container{store: NewStore()}
}

func (c *Container) Store() *Store { return c.store }

func (c *Container) Complaints() complaint.Repository            { return &ComplaintRepository{s: c.store} }
func (c *Container) Comments() complaint.CommentRepository       { return &CommentRepository{s: c.store} }
func (c *Container) Attachments() complaint.AttachmentRepository { return &AttachmentRepository{s: c.store} }
func (c *Container) Residents() resident.Repository              { return &ResidentRepository{s: c.store} }
func (c *Container) Users() user.Repository                      { return &UserRepository{s: c.store} }
func (c *Container) Notifications() notification.Repository      { return &NotificationRepository{s: c.store} }

func (c *Container) Health(context.Context) error { return nil }

func (c *Container) Info() map[string]any {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return map[string]any{
		"type":       "memory",
		"users":      len(c.store.users),
		"complaints": len(c.store.complaints),
	}
}

func (c *Container) Close() error { return nil }

func sortBy[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
