package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/validation"
)

// ResidentService maneja los perfiles de residentes
type ResidentService struct {
	residents  resident.Repository
	complaints complaint.Repository
	validator  validation.ResidentValidation
	now        func() time.Time
	log        *log.Logger
}

// NewResidentService crea una nueva instancia del servicio de residentes
func NewResidentService(residents resident.Repository, complaints complaint.Repository) *ResidentService {
	return &ResidentService{
		residents:  residents,
		complaints: complaints,
		validator:  validation.ResidentValidation{},
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger.Service("resident"),
	}
}

// CreateResidentRequest representa una solicitud para crear un perfil
type CreateResidentRequest struct {
	FirstName     string    `json:"firstName" binding:"required"`
	LastName      string    `json:"lastName" binding:"required"`
	Phone         string    `json:"phone"`
	Apartment     string    `json:"apartment" binding:"required"`
	Floor         int       `json:"floor"`
	Building      string    `json:"building" binding:"required"`
	MoveInDate    time.Time `json:"moveInDate"`
	IsOwner       bool      `json:"isOwner"`
	FamilyMembers []string  `json:"familyMembers"`
}

// UpdateResidentRequest representa una actualización parcial del perfil
type UpdateResidentRequest struct {
	FirstName     *string    `json:"firstName"`
	LastName      *string    `json:"lastName"`
	Phone         *string    `json:"phone"`
	Apartment     *string    `json:"apartment"`
	Floor         *int       `json:"floor"`
	Building      *string    `json:"building"`
	MoveInDate    *time.Time `json:"moveInDate"`
	IsOwner       *bool      `json:"isOwner"`
	FamilyMembers []string   `json:"familyMembers"`
}

func (r UpdateResidentRequest) apply(res *resident.Resident) {
	if r.FirstName != nil {
		res.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		res.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Phone != nil {
		res.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Apartment != nil {
		res.Apartment = strings.TrimSpace(*r.Apartment)
	}
	if r.Floor != nil {
		res.Floor = *r.Floor
	}
	if r.Building != nil {
		res.Building = strings.TrimSpace(*r.Building)
	}
	if r.MoveInDate != nil {
		res.MoveInDate = *r.MoveInDate
	}
	if r.IsOwner != nil {
		res.IsOwner = *r.IsOwner
	}
	if r.FamilyMembers != nil {
		res.FamilyMembers = r.FamilyMembers
	}
}

func (s *ResidentService) validate(res *resident.Resident) error {
	if err := s.validator.ValidateProfile(res.FirstName, res.LastName, res.Apartment, res.Building); err != nil {
		return err
	}
	return s.validator.ValidatePhone(res.Phone)
}

// Create crea el perfil del usuario autenticado. Cada usuario tiene a lo sumo uno.
func (s *ResidentService) Create(ctx context.Context, req CreateResidentRequest, userID uuid.UUID) (*resident.Resident, error) {
	if _, err := s.residents.GetByUserID(ctx, userID); err == nil {
		return nil, fmt.Errorf("resident profile for user %s: %w", userID, common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	moveIn := req.MoveInDate
	if moveIn.IsZero() {
		moveIn = now
	}

	res := &resident.Resident{
		UserID:        userID,
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Phone:         strings.TrimSpace(req.Phone),
		Apartment:     strings.TrimSpace(req.Apartment),
		Floor:         req.Floor,
		Building:      strings.TrimSpace(req.Building),
		MoveInDate:    moveIn,
		IsOwner:       req.IsOwner,
		FamilyMembers: req.FamilyMembers,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.validate(res); err != nil {
		return nil, err
	}

	if err := s.residents.Create(ctx, res); err != nil {
		return nil, err
	}

	s.log.Info("resident profile created", "resident_id", res.ID, "user_id", userID)
	return s.residents.GetByID(ctx, res.ID)
}

// FindAll lista los residentes ordenados por edificio y departamento
func (s *ResidentService) FindAll(ctx context.Context) ([]*resident.Resident, error) {
	return s.residents.List(ctx)
}

func (s *ResidentService) FindOne(ctx context.Context, id uuid.UUID) (*resident.Resident, error) {
	return s.residents.GetByID(ctx, id)
}

func (s *ResidentService) FindByUser(ctx context.Context, userID uuid.UUID) (*resident.Resident, error) {
	return s.residents.GetByUserID(ctx, userID)
}

// Update modifica un perfil. Un residente solo puede modificar el propio.
func (s *ResidentService) Update(ctx context.Context, id uuid.UUID, req UpdateResidentRequest, caller user.Caller) (*resident.Resident, error) {
	res, err := s.residents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.ResidentUpdatePolicy.Check(caller, res.UserID); err != nil {
		return nil, err
	}

	req.apply(res)
	if err := s.validate(res); err != nil {
		return nil, err
	}
	res.UpdatedAt = s.now()

	if err := s.residents.Update(ctx, res); err != nil {
		return nil, err
	}
	return s.residents.GetByID(ctx, id)
}

// Remove elimina un perfil; solo ADMIN
func (s *ResidentService) Remove(ctx context.Context, id uuid.UUID, caller user.Caller) error {
	res, err := s.residents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.ResidentRemovePolicy.Check(caller, res.UserID); err != nil {
		return err
	}
	if err := s.residents.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("resident profile removed", "resident_id", id, "caller", caller.UserID)
	return nil
}

// Stats resume residentes y reclamos pendientes
func (s *ResidentService) Stats(ctx context.Context) (*resident.Stats, error) {
	residents, err := s.residents.Count(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.complaints.Count(ctx, complaint.Filter{})
	if err != nil {
		return nil, err
	}
	pending, err := s.complaints.Count(ctx, complaint.Filter{}.WithStatus(complaint.StatusPending))
	if err != nil {
		return nil, err
	}
	return &resident.Stats{
		TotalResidents:    residents,
		TotalComplaints:   total,
		PendingComplaints: pending,
	}, nil
}

// ServeStats responde get.user.stats en el bus
func (s *ResidentService) ServeStats(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.Stats(ctx)
}
