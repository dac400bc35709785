package authz

import (
	"errors"
	"testing"

	"github.com/Taistois/mims/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	member := &domain.Actor{UserID: 7, Role: domain.RoleMember}
	staff := &domain.Actor{UserID: 2, Role: domain.RoleInsuranceStaff}
	admin := &domain.Actor{UserID: 1, Role: domain.RoleAdmin}

	tests := []struct {
		name   string
		actor  *domain.Actor
		action Action
		owner  uint
		want   error
	}{
		{"nil actor", nil, ClaimList, NoOwner, domain.ErrUnauthenticated},
		{"actor without role", &domain.Actor{UserID: 3}, ClaimList, NoOwner, domain.ErrUnauthenticated},
		{"member creates claim on own policy", member, ClaimCreate, 7, nil},
		{"member creates claim on foreign policy", member, ClaimCreate, 8, domain.ErrForbidden},
		{"member updates claim status", member, ClaimUpdateStatus, 7, domain.ErrForbidden},
		{"staff updates claim status", staff, ClaimUpdateStatus, 7, nil},
		{"staff reads any claim", staff, ClaimRead, 99, nil},
		{"member records repayment", member, RepaymentRecord, 7, domain.ErrForbidden},
		{"member lists own repayments", member, RepaymentList, 7, nil},
		{"member reads foreign policy", member, PolicyRead, 8, domain.ErrForbidden},
		{"member summary", member, ReportSummary, NoOwner, domain.ErrForbidden},
		{"staff summary", staff, ReportSummary, NoOwner, nil},
		{"staff registers user", staff, UserRegister, NoOwner, domain.ErrForbidden},
		{"admin registers user", admin, UserRegister, NoOwner, nil},
		{"unknown action", admin, Action("nope"), NoOwner, domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.owner)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestScopeUserID(t *testing.T) {
	assert.Equal(t, uint(7), ScopeUserID(&domain.Actor{UserID: 7, Role: domain.RoleMember}))
	assert.Equal(t, NoOwner, ScopeUserID(&domain.Actor{UserID: 1, Role: domain.RoleAdmin}))
}
