package repositories

import (
	"context"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ListOptions carries paging for list queries. Limit <= 0 means no limit.
type ListOptions struct {
	Offset int
	Limit  int
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, opts ListOptions) ([]*models.User, int64, error)
	ListByRoles(ctx context.Context, roles ...domain.Role) ([]*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// MemberRepository defines member repository interface
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, opts ListOptions) ([]*models.Member, int64, error)
}

// PolicyRepository defines policy repository interface
type PolicyRepository interface {
	Create(ctx context.Context, policy *models.Policy) error
	GetByID(ctx context.Context, id uint) (*models.Policy, error)
	Update(ctx context.Context, policy *models.Policy) error
	Delete(ctx context.Context, id uint) error
	// List returns policies newest first; ownerUserID restricts to one member's user.
	List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Policy, int64, error)
}

// ClaimRepository defines claim repository interface
type ClaimRepository interface {
	Create(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, id uint) (*models.Claim, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.ClaimStatus) (bool, error)
	List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Claim, int64, error)
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	// GetForUpdate reads the loan and, inside a transaction, locks its row.
	GetForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	// UpdateStatus moves the loan from one status to another and reports
	// whether a row changed.
	UpdateStatus(ctx context.Context, id uint, from, to domain.LoanStatus) (bool, error)
	// MarkRepaid sets status repaid unless already repaid and reports whether a row changed.
	MarkRepaid(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Loan, int64, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Loan, error)
}

// PaymentRepository defines payment repository interface
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Payment, int64, error)
	ListByLoan(ctx context.Context, loanID uint) ([]*models.Payment, error)
	// SumByLoan totals every repayment recorded for a loan.
	SumByLoan(ctx context.Context, loanID uint) (decimal.Decimal, error)
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uint, opts ListOptions) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
}

// ReportRepository runs read-only aggregates. ownerUserID restricts a query to
// one member's rows; NoOwner (0) aggregates everything.
type ReportRepository interface {
	CountMembers(ctx context.Context) (int64, error)
	CountPolicies(ctx context.Context, ownerUserID uint) (int64, error)
	CountClaimsByStatus(ctx context.Context, ownerUserID uint) (map[string]int64, error)
	CountLoansByStatus(ctx context.Context, ownerUserID uint) (map[string]int64, error)
	SumPayments(ctx context.Context, ownerUserID uint, status domain.PaymentStatus) (decimal.Decimal, error)
}
