package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gravadigital/residencia-api/internal/auth"
	"github.com/gravadigital/residencia-api/internal/bus"
	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/validation"
)

// ErrInvalidCredentials is returned by Login for unknown emails, wrong
// passwords and inactive accounts alike.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)

// UserService maneja cuentas y autenticación
type UserService struct {
	users     user.Repository
	publisher bus.Publisher
	validator validation.UserValidation
	secret    []byte
	tokenTTL  time.Duration
	cost      int
	now       func() time.Time
	log       *log.Logger
}

// NewUserService crea una nueva instancia del servicio de usuarios
func NewUserService(users user.Repository, publisher bus.Publisher, secret []byte, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:     users,
		publisher: publisher,
		validator: validation.UserValidation{},
		secret:    secret,
		tokenTTL:  tokenTTL,
		cost:      bcrypt.DefaultCost,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.Service("user"),
	}
}

// RegisterRequest representa una solicitud de registro
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// LoginRequest representa una solicitud de login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest cambia rol y estado de una cuenta
type UpdateUserRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// AuthResult es la respuesta de registro y login
type AuthResult struct {
	AccessToken string     `json:"access_token"`
	User        *user.User `json:"user"`
}

// Register crea una cuenta con la contraseña hasheada con bcrypt
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.ValidateCredentials(email, req.Password); err != nil {
		return nil, err
	}

	role := user.RoleResident
	if req.Role != "" {
		parsed, err := user.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user with email %s: %w", email, common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	u := &user.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, event.UserCreated, event.NewUserEvent(u))
	s.log.Info("user registered", "user_id", u.ID, "role", u.Role)

	return s.issue(u)
}

// Login valida credenciales y emite un JWT
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrBadRequest) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.log.Debug("user logged in", "user_id", u.ID)
	return s.issue(u)
}

func (s *UserService) issue(u *user.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(u.ID, u.Role, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: u}, nil
}

// Me devuelve la cuenta autenticada
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateUser cambia rol o estado; solo ADMIN
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest, caller user.Caller) (*user.User, error) {
	if err := user.UserUpdatePolicy.Check(caller, id); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		role, err := user.ParseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		u.Role = role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	u.UpdatedAt = s.now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, event.UserUpdated, event.NewUserEvent(u))
	s.log.Info("user updated", "user_id", u.ID, "role", u.Role, "is_active", u.IsActive)
	return u, nil
}
