package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

func TestPolicies(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		policy  Policy
		caller  Caller
		allowed bool
	}{
		{"resident updates own complaint", ComplaintUpdatePolicy, Caller{owner, RoleResident}, true},
		{"resident updates foreign complaint", ComplaintUpdatePolicy, Caller{other, RoleResident}, false},
		{"manager updates foreign complaint", ComplaintUpdatePolicy, Caller{other, RoleManager}, true},
		{"admin updates foreign complaint", ComplaintUpdatePolicy, Caller{other, RoleAdmin}, true},
		{"resident removes own complaint", ComplaintRemovePolicy, Caller{owner, RoleResident}, true},
		{"resident removes foreign complaint", ComplaintRemovePolicy, Caller{other, RoleResident}, false},
		{"manager removes own complaint", ComplaintRemovePolicy, Caller{owner, RoleManager}, true},
		{"manager removes foreign complaint", ComplaintRemovePolicy, Caller{other, RoleManager}, false},
		{"admin removes foreign complaint", ComplaintRemovePolicy, Caller{other, RoleAdmin}, true},
		{"manager deletes foreign attachment", AttachmentDeletePolicy, Caller{other, RoleManager}, true},
		{"resident deletes foreign attachment", AttachmentDeletePolicy, Caller{other, RoleResident}, false},
		{"resident removes own resident profile", ResidentRemovePolicy, Caller{owner, RoleResident}, false},
		{"manager removes resident profile", ResidentRemovePolicy, Caller{other, RoleManager}, false},
		{"admin removes resident profile", ResidentRemovePolicy, Caller{other, RoleAdmin}, true},
		{"nil caller never owns", ComplaintRemovePolicy, Caller{uuid.Nil, RoleResident}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ownerID := owner
			if tt.caller.UserID == uuid.Nil {
				ownerID = uuid.Nil
			}
			err := tt.policy.Check(tt.caller, ownerID)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrForbidden)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("manager")
	assert.NoError(t, err)
	assert.Equal(t, RoleManager, r)

	_, err = ParseRole("janitor")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
