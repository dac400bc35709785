package services

import (
	"strings"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Service errors. Each matches its domain root with errors.Is.
var (
	ErrUserNotFound         = domain.NewError(domain.KindNotFound, "user not found")
	ErrMemberNotFound       = domain.NewError(domain.KindNotFound, "member not found")
	ErrPolicyNotFound       = domain.NewError(domain.KindNotFound, "policy not found")
	ErrClaimNotFound        = domain.NewError(domain.KindNotFound, "claim not found")
	ErrLoanNotFound         = domain.NewError(domain.KindNotFound, "loan not found")
	ErrPaymentNotFound      = domain.NewError(domain.KindNotFound, "payment not found")
	ErrNotificationNotFound = domain.NewError(domain.KindNotFound, "notification not found")
	ErrNoRepayments         = domain.NewError(domain.KindNotFound, "No repayments found for this loan")

	ErrInvalidCredentials = domain.NewError(domain.KindUnauthenticated, "invalid email or password")
	ErrInvalidToken       = domain.NewError(domain.KindUnauthenticated, "invalid token")
	ErrTokenExpired       = domain.NewError(domain.KindUnauthenticated, "token expired")
	ErrTokenRevoked       = domain.NewError(domain.KindUnauthenticated, "token revoked")

	ErrEmailAlreadyExists = domain.NewError(domain.KindConflict, "email already in use")
	ErrMemberExists       = domain.NewError(domain.KindConflict, "user already has a member profile")
	ErrConcurrentUpdate   = domain.NewError(domain.KindConflict, "status changed by another request, please retry")
	ErrIdempotencyReused  = domain.NewError(domain.KindConflict, "idempotency key already used for another loan")

	ErrUserNotMember     = domain.NewError(domain.KindValidation, "user must have role 'member'")
	ErrCannotDeleteSelf  = domain.NewError(domain.KindValidation, "cannot delete your own account")
	ErrOldPasswordWrong  = domain.NewError(domain.KindValidation, "old password is incorrect")
	ErrWeakPassword      = domain.NewError(domain.KindValidation, "password must be at least 8 characters")
	ErrClaimNotApproved  = domain.NewError(domain.KindValidation, "claim must be approved before it can be paid")
	ErrInvalidDateRange  = domain.NewError(domain.KindValidation, "end_date must be after start_date")
	ErrInvalidDuration   = domain.NewError(domain.KindValidation, "duration must be between 1 and 600 months")
	ErrInvalidInterest   = domain.NewError(domain.KindValidation, "interest_rate must be between 0 and 999.99")
	ErrMissingRecipient  = domain.NewError(domain.KindValidation, "user_id is required")
	ErrEmptyNotification = domain.NewError(domain.KindValidation, "title and message are required")
)

// unknownOwner never matches an actor, so members are refused rows whose
// owner could not be resolved.
const unknownOwner = ^uint(0)

// orNotFound swaps a repository not-found error for the entity's own error.
func orNotFound(err, notFound error) error {
	if repositories.IsNotFound(err) {
		return notFound
	}
	return err
}

// ownerOf resolves the user that owns rows of a member.
func ownerOf(m *models.Member) uint {
	if m == nil {
		return unknownOwner
	}
	return m.UserID
}

// nameOf returns the display name of a member's user.
func nameOf(m *models.Member) string {
	if m == nil || m.User == nil {
		return "member"
	}
	return m.User.Name
}

// validateAmount checks a money field: positive with at most two decimals.
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.Validationf("%s must be greater than 0", field)
	}
	if !amount.Equal(amount.Round(2)) {
		return domain.Validationf("%s must have at most 2 decimal places", field)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, domain.Validationf("%s must be a date (YYYY-MM-DD)", field)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func transitionError(entity, from, to string) error {
	if from == to {
		return domain.Validationf("%s is already '%s'", entity, to)
	}
	return domain.Validationf("cannot change %s status from '%s' to '%s'", entity, from, to)
}
