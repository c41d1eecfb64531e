package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
)

type UserRepository struct {
	s *Store
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user with email %s: %w", u.Email, common.ErrConflict)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = user.RoleResident
	}
	now := r.s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	stored := *u
	r.s.users[u.ID] = &stored
	r.s.stamp(u.ID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty: %w", common.ErrBadRequest)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user: %w", common.ErrNotFound)
}

func (r *UserRepository) ListByRoles(_ context.Context, roles ...user.Role) ([]*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*user.User, 0)
	for _, u := range r.s.users {
		if u.IsActive && slices.Contains(roles, u.Role) {
			c := *u
			out = append(out, &c)
		}
	}
	sortBy(out, func(a, b *user.User) bool { return r.s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[u.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID, common.ErrNotFound)
	}
	stored.Role = u.Role
	stored.IsActive = u.IsActive
	stored.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *UserRepository) Count(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

type ResidentRepository struct {
	s *Store
}

var _ resident.Repository = (*ResidentRepository)(nil)

func (s *Store) residentView(res *resident.Resident) *resident.Resident {
	out := *res
	out.FamilyMembers = slices.Clone(res.FamilyMembers)
	out.User = s.summary(res.UserID)
	return &out
}

func (r *ResidentRepository) Create(_ context.Context, res *resident.Resident) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[res.UserID]; !ok {
		return fmt.Errorf("resident references missing user %s: %w", res.UserID, common.ErrBadRequest)
	}
	for _, existing := range r.s.residents {
		if existing.UserID == res.UserID {
			return fmt.Errorf("resident profile for user %s: %w", res.UserID, common.ErrConflict)
		}
	}
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	now := r.s.now()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	if res.UpdatedAt.IsZero() {
		res.UpdatedAt = now
	}

	stored := *res
	stored.FamilyMembers = slices.Clone(res.FamilyMembers)
	stored.User = common.UserSummary{}
	r.s.residents[res.ID] = &stored
	r.s.stamp(res.ID)
	return nil
}

func (r *ResidentRepository) GetByID(_ context.Context, id uuid.UUID) (*resident.Resident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.residents[id]
	if !ok {
		return nil, fmt.Errorf("resident %s: %w", id, common.ErrNotFound)
	}
	return r.s.residentView(res), nil
}

func (r *ResidentRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*resident.Resident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, res := range r.s.residents {
		if res.UserID == userID {
			return r.s.residentView(res), nil
		}
	}
	return nil, fmt.Errorf("resident profile for user %s: %w", userID, common.ErrNotFound)
}

func (r *ResidentRepository) List(context.Context) ([]*resident.Resident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*resident.Resident, 0, len(r.s.residents))
	for _, res := range r.s.residents {
		out = append(out, r.s.residentView(res))
	}
	sortBy(out, func(a, b *resident.Resident) bool {
		if a.Building != b.Building {
			return a.Building < b.Building
		}
		return a.Apartment < b.Apartment
	})
	return out, nil
}

func (r *ResidentRepository) Update(_ context.Context, res *resident.Resident) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.residents[res.ID]
	if !ok {
		return fmt.Errorf("resident %s: %w", res.ID, common.ErrNotFound)
	}
	stored.FirstName = res.FirstName
	stored.LastName = res.LastName
	stored.Phone = res.Phone
	stored.Apartment = res.Apartment
	stored.Floor = res.Floor
	stored.Building = res.Building
	stored.MoveInDate = res.MoveInDate
	stored.IsOwner = res.IsOwner
	stored.FamilyMembers = slices.Clone(res.FamilyMembers)
	stored.UpdatedAt = res.UpdatedAt
	return nil
}

func (r *ResidentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.residents[id]; !ok {
		return fmt.Errorf("resident %s: %w", id, common.ErrNotFound)
	}
	delete(r.s.residents, id)
	return nil
}

func (r *ResidentRepository) Count(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.residents)), nil
}
