package event

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/domain/user"
)

// Topic is a logical channel name; it is also the routing key on the bus
type Topic string

const (
	ComplaintCreated    Topic = "complaint.created"
	ComplaintUpdated    Topic = "complaint.updated"
	ComplaintDeleted    Topic = "complaint.deleted"
	UserCreated         Topic = "user.created"
	UserUpdated         Topic = "user.updated"
	NotificationCreated Topic = "notification.created"

	// Request/response topics
	GetComplaintStats Topic = "get.complaint.stats"
	GetUserStats      Topic = "get.user.stats"
)

// DomainTopics lists every fire-and-forget domain event topic
func DomainTopics() []Topic {
	return []Topic{
		ComplaintCreated,
		ComplaintUpdated,
		ComplaintDeleted,
		UserCreated,
		UserUpdated,
		NotificationCreated,
	}
}

func (t Topic) String() string {
	return string(t)
}

// IsComplaint reports whether t belongs to the complaint.* family
func (t Topic) IsComplaint() bool {
	return strings.HasPrefix(string(t), "complaint.")
}

// IsUser reports whether t belongs to the user.* family
func (t Topic) IsUser() bool {
	return strings.HasPrefix(string(t), "user.")
}

// ComplaintEvent is the flat snapshot published for complaint.created and
// complaint.updated.
type ComplaintEvent struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	AuthorID    string  `json:"authorId"`
	AssigneeID  *string `json:"assigneeId,omitempty"`
	Apartment   string  `json:"apartment"`
	Building    string  `json:"building"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	ResolvedAt  *string `json:"resolvedAt,omitempty"`
	ActorID     string  `json:"actorId,omitempty"`
	Change      Change  `json:"change,omitempty"`
}

// Change says what part of a complaint an update touched
type Change string

const (
	ChangeFields     Change = "fields"
	ChangeComment    Change = "comment"
	ChangeAttachment Change = "attachment"
)

type ComplaintDeletedEvent struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	DeletedAt string `json:"deletedAt"`
}

type UserEvent struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

type NotificationEvent struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	Type        string  `json:"type"`
	ComplaintID *string `json:"complaintId,omitempty"`
}

func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func isoTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := isoTime(*t)
	return &s
}

func uuidPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// NewComplaintEvent flattens a complaint into its wire snapshot
func NewComplaintEvent(c *complaint.Complaint) ComplaintEvent {
	return ComplaintEvent{
		ID:          c.ID.String(),
		Title:       c.Title,
		Description: c.Description,
		Category:    string(c.Category),
		Priority:    string(c.Priority),
		Status:      string(c.Status),
		AuthorID:    c.AuthorID.String(),
		AssigneeID:  uuidPtr(c.AssigneeID),
		Apartment:   c.Apartment,
		Building:    c.Building,
		CreatedAt:   isoTime(c.CreatedAt),
		UpdatedAt:   isoTime(c.UpdatedAt),
		ResolvedAt:  isoTimePtr(c.ResolvedAt),
	}
}

// By records who caused the event and what it changed
func (e ComplaintEvent) By(actorID uuid.UUID, change Change) ComplaintEvent {
	e.ActorID = actorID.String()
	e.Change = change
	return e
}

func NewComplaintDeletedEvent(id, userID uuid.UUID, at time.Time) ComplaintDeletedEvent {
	return ComplaintDeletedEvent{ID: id.String(), UserID: userID.String(), DeletedAt: isoTime(at)}
}

func NewUserEvent(u *user.User) UserEvent {
	return UserEvent{
		ID:        u.ID.String(),
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: isoTime(u.CreatedAt),
	}
}

func NewNotificationEvent(n *notification.Notification) NotificationEvent {
	return NotificationEvent{
		ID:          n.ID.String(),
		UserID:      n.UserID.String(),
		Title:       n.Title,
		Message:     n.Message,
		Type:        string(n.Type),
		ComplaintID: uuidPtr(n.ComplaintID),
	}
}

// Envelope is what realtime clients receive for every relayed event
type Envelope struct {
	Type      Topic           `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// NewEnvelope wraps a raw payload stamped with now
func NewEnvelope(topic Topic, payload json.RawMessage, now time.Time) Envelope {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return Envelope{Type: topic, Data: payload, Timestamp: isoTime(now)}
}

// Dispatcher consumes domain events regardless of whether they arrived over
// the bus or from an in-process publisher.
type Dispatcher interface {
	Dispatch(ctx context.Context, topic Topic, payload json.RawMessage) error
}

// DispatcherFunc adapts a function to Dispatcher
type DispatcherFunc func(ctx context.Context, topic Topic, payload json.RawMessage) error

func (f DispatcherFunc) Dispatch(ctx context.Context, topic Topic, payload json.RawMessage) error {
	return f(ctx, topic, payload)
}
