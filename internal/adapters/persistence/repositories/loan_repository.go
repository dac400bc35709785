package repositories

import (
	"context"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return translate(conn(ctx, r.db).Omit("Member").Create(loan).Error)
}

// GetByID gets a loan with its owning member and user
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := conn(ctx, r.db).
		Preload("Member.User").
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, translate(err)
	}
	return &loan, nil
}

// GetForUpdate gets a loan and locks its row for the running transaction
func (r *loanRepository) GetForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := forUpdate(ctx, conn(ctx, r.db)).
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, translate(err)
	}
	return &loan, nil
}

// UpdateStatus changes status only when the loan is still in from
func (r *loanRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.LoanStatus) (bool, error) {
	res := conn(ctx, r.db).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkRepaid flips a loan to repaid once; later calls change nothing
func (r *loanRepository) MarkRepaid(ctx context.Context, id uint) (bool, error) {
	res := conn(ctx, r.db).
		Model(&models.Loan{}).
		Where("id = ? AND status <> ?", id, domain.LoanRepaid).
		Update("status", domain.LoanRepaid)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete deletes a loan
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Loan{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List lists loans newest first
func (r *loanRepository) List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	if err := ownedBy(conn(ctx, r.db).Model(&models.Loan{}), ownerUserID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := ownedBy(conn(ctx, r.db), ownerUserID).Order("created_at DESC").Order("id DESC")
	if err := paginate(q, opts).Find(&loans).Error; err != nil {
		return nil, 0, translate(err)
	}
	return loans, total, nil
}

// ListOverdue returns approved loans whose due date has passed
func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := conn(ctx, r.db).
		Preload("Member.User").
		Where("status = ? AND due_date < ?", domain.LoanApproved, now).
		Order("due_date ASC").
		Find(&loans).Error
	if err != nil {
		return nil, translate(err)
	}
	return loans, nil
}
