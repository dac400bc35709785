package domain

// Role represents user role in the system
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleInsuranceStaff Role = "insurance_staff"
	RoleMember         Role = "member"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleInsuranceStaff, RoleMember:
		return r, nil
	}
	return "", Validationf("invalid role '%s' (must be admin, insurance_staff or member)", s)
}

// IsStaff reports whether the role can act on behalf of the insurer.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleInsuranceStaff
}

// StaffRoles lists the roles that receive staff fan-out notifications.
var StaffRoles = []Role{RoleAdmin, RoleInsuranceStaff}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID uint
	Name   string
	Email  string
	Role   Role
}

// Anonymous reports whether the actor carries no verified identity.
func (a *Actor) Anonymous() bool {
	return a == nil || a.UserID == 0 || a.Role == ""
}

// PaymentKind tags what a payment settles.
type PaymentKind string

const (
	PaymentKindClaim PaymentKind = "claim_payment"
	PaymentKindLoan  PaymentKind = "loan_repayment"
)

// PaymentStatus of a recorded payment.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// ParsePaymentStatus validates a payment status; empty means success.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case "":
		return PaymentStatusSuccess, nil
	case PaymentStatusSuccess, PaymentStatusPending, PaymentStatusFailed:
		return st, nil
	}
	return "", Validationf("invalid payment status '%s'", s)
}
