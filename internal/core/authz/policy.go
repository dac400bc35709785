// Package authz decides whether an actor may perform an action.
//
// Decisions come from a static allow-list per action plus a row-level rule:
// a member may only touch rows owned by their own user id.
package authz

import (
	"github.com/Taistois/mims/internal/core/domain"
)

// Action names an operation guarded by the policy.
type Action string

const (
	ClaimCreate       Action = "claim.create"
	ClaimRead         Action = "claim.read"
	ClaimList         Action = "claim.list"
	ClaimUpdateStatus Action = "claim.update_status"

	LoanCreate       Action = "loan.create"
	LoanRead         Action = "loan.read"
	LoanList         Action = "loan.list"
	LoanUpdateStatus Action = "loan.update_status"
	LoanDelete       Action = "loan.delete"

	RepaymentRecord Action = "repayment.record"
	RepaymentList   Action = "repayment.list"

	PaymentRecord Action = "payment.record"
	PaymentRead   Action = "payment.read"
	PaymentList   Action = "payment.list"
	PaymentDelete Action = "payment.delete"

	PolicyCreate Action = "policy.create"
	PolicyRead   Action = "policy.read"
	PolicyList   Action = "policy.list"
	PolicyUpdate Action = "policy.update"
	PolicyDelete Action = "policy.delete"

	MemberCreate Action = "member.create"
	MemberRead   Action = "member.read"
	MemberList   Action = "member.list"
	MemberUpdate Action = "member.update"
	MemberDelete Action = "member.delete"

	NotificationCreate   Action = "notification.create"
	NotificationList     Action = "notification.list"
	NotificationMarkRead Action = "notification.mark_read"
	NotificationDelete   Action = "notification.delete"

	ReportSummary Action = "report.summary"
	ReportSelf    Action = "report.self"

	UserRegister Action = "user.register"
	UserList     Action = "user.list"
	UserDelete   Action = "user.delete"
)

// NoOwner marks an action check that is not tied to a single row.
const NoOwner uint = 0

var (
	everyone  = []domain.Role{domain.RoleMember, domain.RoleAdmin, domain.RoleInsuranceStaff}
	staff     = []domain.Role{domain.RoleAdmin, domain.RoleInsuranceStaff}
	adminOnly = []domain.Role{domain.RoleAdmin}
)

var table = map[Action][]domain.Role{
	ClaimCreate:       everyone,
	ClaimRead:         everyone,
	ClaimList:         everyone,
	ClaimUpdateStatus: staff,

	LoanCreate:       staff,
	LoanRead:         everyone,
	LoanList:         everyone,
	LoanUpdateStatus: staff,
	LoanDelete:       staff,

	RepaymentRecord: staff,
	RepaymentList:   everyone,

	PaymentRecord: staff,
	PaymentRead:   everyone,
	PaymentList:   everyone,
	PaymentDelete: staff,

	PolicyCreate: staff,
	PolicyRead:   everyone,
	PolicyList:   everyone,
	PolicyUpdate: staff,
	PolicyDelete: staff,

	MemberCreate: staff,
	MemberRead:   everyone,
	MemberList:   staff,
	MemberUpdate: staff,
	MemberDelete: staff,

	NotificationCreate:   staff,
	NotificationList:     everyone,
	NotificationMarkRead: everyone,
	NotificationDelete:   everyone,

	ReportSummary: staff,
	ReportSelf:    everyone,

	UserRegister: adminOnly,
	UserList:     adminOnly,
	UserDelete:   adminOnly,
}

// Allowed reports whether role is on the allow-list of action.
func Allowed(role domain.Role, action Action) bool {
	for _, r := range table[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize checks actor against action. ownerUserID is the user that owns the
// target row, or NoOwner for actions that are not row-scoped.
//
// A missing actor yields domain.ErrUnauthenticated; everything else that is
// refused yields domain.ErrForbidden.
func Authorize(actor *domain.Actor, action Action, ownerUserID uint) error {
	if actor.Anonymous() {
		return domain.ErrUnauthenticated
	}
	if !Allowed(actor.Role, action) {
		return domain.ErrForbidden
	}
	if actor.Role == domain.RoleMember && ownerUserID != NoOwner && ownerUserID != actor.UserID {
		return domain.ErrForbidden
	}
	return nil
}

// ScopeUserID returns the user id a list query must be restricted to:
// the actor's own id for members, NoOwner (unrestricted) for staff.
func ScopeUserID(actor *domain.Actor) uint {
	if actor.Role == domain.RoleMember {
		return actor.UserID
	}
	return NoOwner
}
