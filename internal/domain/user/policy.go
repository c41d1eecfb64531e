package user

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

// Policy decides whether a caller may act on a resource owned by ownerID
type Policy struct {
	name       string
	roles      []Role
	allowOwner bool
}

// OwnerOrRole allows the resource owner and any caller holding one of roles
func OwnerOrRole(name string, roles ...Role) Policy {
	return Policy{name: name, roles: roles, allowOwner: true}
}

// RoleOnly allows only callers holding one of roles, owners included
func RoleOnly(name string, roles ...Role) Policy {
	return Policy{name: name, roles: roles}
}

// Allows reports whether caller passes the policy
func (p Policy) Allows(caller Caller, ownerID uuid.UUID) bool {
	if slices.Contains(p.roles, caller.Role) {
		return true
	}
	return p.allowOwner && caller.UserID != uuid.Nil && caller.UserID == ownerID
}

// Check returns common.ErrForbidden when caller does not pass the policy
func (p Policy) Check(caller Caller, ownerID uuid.UUID) error {
	if p.Allows(caller, ownerID) {
		return nil
	}
	return fmt.Errorf("%s denied for role %s: %w", p.name, caller.Role, common.ErrForbidden)
}

// Per-operation policies. Managers may update any complaint but delete only
// their own; keep that asymmetry.
var (
	ComplaintUpdatePolicy  = OwnerOrRole("complaint update", RoleManager, RoleAdmin)
	ComplaintRemovePolicy  = OwnerOrRole("complaint removal", RoleAdmin)
	AttachmentDeletePolicy = OwnerOrRole("attachment removal", RoleManager, RoleAdmin)
	ResidentUpdatePolicy   = OwnerOrRole("resident update", RoleManager, RoleAdmin)
	ResidentRemovePolicy   = RoleOnly("resident removal", RoleAdmin)
	UserUpdatePolicy       = RoleOnly("user update", RoleAdmin)
)
