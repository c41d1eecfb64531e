package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/bus"
	"github.com/gravadigital/residencia-api/internal/cache"
	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/objectstore"
	"github.com/gravadigital/residencia-api/internal/validation"
)

const defaultMimeType = "application/octet-stream"

// ComplaintService maneja el ciclo de vida de los reclamos, sus comentarios
// y sus adjuntos. Las fallas de caché y de publicación nunca fallan la
// operación.
type ComplaintService struct {
	complaints  complaint.Repository
	comments    complaint.CommentRepository
	attachments complaint.AttachmentRepository
	residents   resident.Repository
	store       objectstore.Store
	cache       cache.Cache
	publisher   bus.Publisher
	ttl         time.Duration
	now         func() time.Time
	log         *log.Logger
}

// ComplaintRepositories agrupa los repositorios que usa el servicio
type ComplaintRepositories struct {
	Complaints  complaint.Repository
	Comments    complaint.CommentRepository
	Attachments complaint.AttachmentRepository
	Residents   resident.Repository
}

// NewComplaintService crea una nueva instancia del servicio de reclamos
func NewComplaintService(repos ComplaintRepositories, store objectstore.Store, c cache.Cache, publisher bus.Publisher) *ComplaintService {
	return &ComplaintService{
		complaints:  repos.Complaints,
		comments:    repos.Comments,
		attachments: repos.Attachments,
		residents:   repos.Residents,
		store:       store,
		cache:       c,
		publisher:   publisher,
		ttl:         cache.DefaultTTL,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Service("complaint"),
	}
}

// WithCacheTTL cambia el TTL de los reclamos cacheados
func (s *ComplaintService) WithCacheTTL(ttl time.Duration) *ComplaintService {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// CreateComplaintRequest representa una solicitud para crear un reclamo.
// Apartment y building no se aceptan del cliente.
type CreateComplaintRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description" binding:"required"`
	Category    complaint.Category `json:"category" binding:"required"`
	Priority    complaint.Priority `json:"priority"`
}

// Validate valida la solicitud de creación
func (r CreateComplaintRequest) Validate() error {
	if err := complaint.ValidateTitle(r.Title); err != nil {
		return err
	}
	if err := complaint.ValidateDescription(r.Description); err != nil {
		return err
	}
	if !r.Category.Valid() {
		return fmt.Errorf("invalid category %q: %w", r.Category, common.ErrBadRequest)
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return fmt.Errorf("invalid priority %q: %w", r.Priority, common.ErrBadRequest)
	}
	return nil
}

// UpdateComplaintRequest representa una actualización parcial
type UpdateComplaintRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *complaint.Status   `json:"status"`
	Priority    *complaint.Priority `json:"priority"`
	Category    *complaint.Category `json:"category"`
	AssigneeID  *string             `json:"assigneeId"`
}

// Patch convierte la solicitud en un parche de dominio
func (r UpdateComplaintRequest) Patch() (complaint.Patch, error) {
	p := complaint.Patch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Category:    r.Category,
	}
	if r.AssigneeID != nil {
		id, err := validation.ParseUUID(*r.AssigneeID, "assigneeId")
		if err != nil {
			return complaint.Patch{}, err
		}
		p.AssigneeID = &id
	}
	return p, p.Validate()
}

// FileUpload describe un archivo recibido para adjuntar
type FileUpload struct {
	Name     string
	Size     int64
	MimeType string
	Reader   io.Reader
}

// Create registra un reclamo del residente autenticado
func (s *ComplaintService) Create(ctx context.Context, req CreateComplaintRequest, authorID uuid.UUID) (*complaint.Complaint, error) {
	// Validaciones
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.residents.GetByUserID(ctx, authorID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("resident profile not found, create one before filing complaints: %w", common.ErrNotFound)
		}
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = complaint.PriorityMedium
	}

	now := s.now()
	c := &complaint.Complaint{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      complaint.StatusPending,
		Apartment:   profile.Apartment,
		Building:    profile.Building,
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, err
	}

	created, err := s.complaints.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.ComplaintKey(created.ID), created, s.ttl)
	s.publisher.Publish(ctx, event.ComplaintCreated, event.NewComplaintEvent(created))

	s.log.Info("complaint created", "complaint_id", created.ID, "author_id", authorID, "building", created.Building)
	return created, nil
}

// FindAll lista reclamos filtrados, los más recientes primero
func (s *ComplaintService) FindAll(ctx context.Context, filter complaint.Filter) ([]*complaint.Complaint, error) {
	return s.complaints.List(ctx, filter)
}

// FindByUser lista los reclamos de un autor
func (s *ComplaintService) FindByUser(ctx context.Context, userID uuid.UUID) ([]*complaint.Complaint, error) {
	return s.complaints.List(ctx, complaint.Filter{AuthorID: &userID})
}

// FindOne obtiene un reclamo, primero desde la caché
func (s *ComplaintService) FindOne(ctx context.Context, id uuid.UUID) (*complaint.Complaint, error) {
	key := cache.ComplaintKey(id)

	var cached complaint.Complaint
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, c, s.ttl)
	return c, nil
}

// Update aplica un parche. Los residentes solo pueden modificar sus propios
// reclamos; el último en escribir gana.
func (s *ComplaintService) Update(ctx context.Context, id uuid.UUID, patch complaint.Patch, caller user.Caller) (*complaint.Complaint, error) {
	current, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.ComplaintUpdatePolicy.Check(caller, current.AuthorID); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current.Apply(patch, s.now())
	if err := s.complaints.Update(ctx, current); err != nil {
		return nil, err
	}

	updated, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.ComplaintKey(id), updated, s.ttl)
	s.publisher.Publish(ctx, event.ComplaintUpdated, event.NewComplaintEvent(updated).By(caller.UserID, event.ChangeFields))

	s.log.Info("complaint updated", "complaint_id", id, "status", updated.Status, "caller", caller.UserID)
	return updated, nil
}

// Remove elimina un reclamo junto con sus comentarios y adjuntos. Las filas
// se borran primero; los blobs después y sin fallar la operación. El evento
// complaint.deleted lleva el autor del reclamo como userId.
func (s *ComplaintService) Remove(ctx context.Context, id uuid.UUID, caller user.Caller) error {
	current, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.ComplaintRemovePolicy.Check(caller, current.AuthorID); err != nil {
		return err
	}

	if err := s.complaints.Delete(ctx, id); err != nil {
		return err
	}

	for _, a := range current.Attachments {
		if err := s.store.Remove(ctx, a.FilePath); err != nil {
			s.log.Warn("failed to remove attachment blob", "complaint_id", id, "attachment_id", a.ID, "error", err)
		}
	}

	s.cache.Delete(ctx, cache.ComplaintKey(id))
	s.publisher.Publish(ctx, event.ComplaintDeleted, event.NewComplaintDeletedEvent(id, current.AuthorID, s.now()))

	s.log.Info("complaint removed", "complaint_id", id, "caller", caller.UserID)
	return nil
}

// touched invalida la caché y publica el reclamo releído junto con quién lo
// modificó. Si la relectura falla se publica el estado previo.
func (s *ComplaintService) touched(ctx context.Context, c *complaint.Complaint, actorID uuid.UUID, change event.Change) {
	s.cache.Delete(ctx, cache.ComplaintKey(c.ID))

	fresh, err := s.complaints.GetByID(ctx, c.ID)
	if err != nil {
		s.log.Warn("failed to re-read complaint", "complaint_id", c.ID, "error", err)
		fresh = c
	}
	s.publisher.Publish(ctx, event.ComplaintUpdated, event.NewComplaintEvent(fresh).By(actorID, change))
}

// AddComment agrega un comentario. Cualquier usuario autenticado puede comentar.
func (s *ComplaintService) AddComment(ctx context.Context, complaintID uuid.UUID, content string, authorID uuid.UUID) (*complaint.Comment, error) {
	c, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateRequired(content, "content"); err != nil {
		return nil, err
	}

	comment := &complaint.Comment{
		ComplaintID: complaintID,
		AuthorID:    authorID,
		Content:     content,
		CreatedAt:   s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.touched(ctx, c, authorID, event.ChangeComment)
	return comment, nil
}

// UploadAttachment guarda el archivo en el object store y luego su metadata.
// Si la metadata falla, el blob se elimina.
func (s *ComplaintService) UploadAttachment(ctx context.Context, complaintID uuid.UUID, file FileUpload, uploaderID uuid.UUID) (*complaint.Attachment, error) {
	c, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if file.Reader == nil || file.Size <= 0 {
		return nil, fmt.Errorf("file is required: %w", common.ErrBadRequest)
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	key := complaint.StorageKey(complaintID, s.now(), file.Name)
	if err := s.store.Put(ctx, key, file.Reader, file.Size, mimeType); err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	a := &complaint.Attachment{
		ComplaintID: complaintID,
		UploaderID:  uploaderID,
		FileName:    file.Name,
		FilePath:    key,
		FileSize:    file.Size,
		MimeType:    mimeType,
		CreatedAt:   s.now(),
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			s.log.Warn("failed to clean up orphan blob", "key", key, "error", rmErr)
		}
		return nil, err
	}

	s.touched(ctx, c, uploaderID, event.ChangeAttachment)
	s.log.Info("attachment uploaded", "complaint_id", complaintID, "attachment_id", a.ID, "size", a.FileSize)
	return a.WithURL(), nil
}

// ListAttachments lista los adjuntos de un reclamo, los más recientes primero
func (s *ComplaintService) ListAttachments(ctx context.Context, complaintID uuid.UUID) ([]*complaint.Attachment, error) {
	if _, err := s.complaints.GetByID(ctx, complaintID); err != nil {
		return nil, err
	}
	return s.attachments.ListByComplaint(ctx, complaintID)
}

// GetAttachment obtiene un adjunto verificando que pertenezca al reclamo
func (s *ComplaintService) GetAttachment(ctx context.Context, complaintID, attachmentID uuid.UUID) (*complaint.Attachment, error) {
	a, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if !a.BelongsTo(complaintID) {
		return nil, fmt.Errorf("attachment %s: %w", attachmentID, common.ErrNotFound)
	}
	return a, nil
}

// OpenAttachment devuelve la metadata y el contenido de un adjunto
func (s *ComplaintService) OpenAttachment(ctx context.Context, complaintID, attachmentID uuid.UUID) (*complaint.Attachment, io.ReadCloser, error) {
	a, err := s.GetAttachment(ctx, complaintID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.store.Open(ctx, a.FilePath)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, nil, fmt.Errorf("attachment content %s: %w", attachmentID, common.ErrNotFound)
		}
		return nil, nil, err
	}
	return a, body, nil
}

// DeleteAttachment elimina el blob y luego la metadata
func (s *ComplaintService) DeleteAttachment(ctx context.Context, complaintID, attachmentID uuid.UUID, caller user.Caller) error {
	c, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return err
	}
	if err := user.AttachmentDeletePolicy.Check(caller, c.AuthorID); err != nil {
		return err
	}

	a, err := s.GetAttachment(ctx, complaintID, attachmentID)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, a.FilePath); err != nil {
		return fmt.Errorf("failed to remove attachment blob: %w", err)
	}
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		return err
	}

	s.touched(ctx, c, caller.UserID, event.ChangeAttachment)
	s.log.Info("attachment deleted", "complaint_id", complaintID, "attachment_id", attachmentID)
	return nil
}

// Stats cuenta los reclamos totales y por estado
func (s *ComplaintService) Stats(ctx context.Context) (*complaint.Stats, error) {
	stats := &complaint.Stats{}
	counts := []struct {
		dst    *int64
		filter complaint.Filter
	}{
		{&stats.Total, complaint.Filter{}},
		{&stats.Pending, complaint.Filter{}.WithStatus(complaint.StatusPending)},
		{&stats.InProgress, complaint.Filter{}.WithStatus(complaint.StatusInProgress)},
		{&stats.Resolved, complaint.Filter{}.WithStatus(complaint.StatusResolved)},
		{&stats.Closed, complaint.Filter{}.WithStatus(complaint.StatusClosed)},
	}

	for _, c := range counts {
		n, err := s.complaints.Count(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return stats, nil
}

// ServeStats responde get.complaint.stats en el bus
func (s *ComplaintService) ServeStats(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.Stats(ctx)
}
