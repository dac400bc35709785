package repositories

import (
	"context"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errInvalidPayment = domain.NewError(domain.KindValidation, "payment must reference exactly one of claim or loan")

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a payment after checking its variant
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if !payment.Valid() {
		return errInvalidPayment
	}
	return translate(conn(ctx, r.db).Omit("Claim", "Loan").Create(payment).Error)
}

// GetByID gets a payment
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := conn(ctx, r.db).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// GetByIdempotencyKey finds a payment recorded under key
func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	var payment models.Payment
	if err := conn(ctx, r.db).Where("idempotency_key = ?", key).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// Delete deletes a payment
func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Payment{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List lists payments newest first
func (r *paymentRepository) List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	if err := ownedBy(conn(ctx, r.db).Model(&models.Payment{}), ownerUserID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := ownedBy(conn(ctx, r.db), ownerUserID).Order("payment_date DESC").Order("id DESC")
	if err := paginate(q, opts).Find(&payments).Error; err != nil {
		return nil, 0, translate(err)
	}
	return payments, total, nil
}

// ListByLoan lists the repayments of a loan newest first
func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := conn(ctx, r.db).
		Where("loan_id = ? AND kind = ?", loanID, domain.PaymentKindLoan).
		Order("payment_date DESC").
		Order("id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, translate(err)
	}
	return payments, nil
}

// SumByLoan totals the repayments of a loan
func (r *paymentRepository) SumByLoan(ctx context.Context, loanID uint) (decimal.Decimal, error) {
	return sumAmount(conn(ctx, r.db).
		Model(&models.Payment{}).
		Where("loan_id = ? AND kind = ?", loanID, domain.PaymentKindLoan))
}

// sumAmount totals the amount column of q. MySQL and Postgres return an exact
// numeric for SUM; SQLite returns a float, so there the rows are added here.
func sumAmount(q *gorm.DB) (decimal.Decimal, error) {
	if q.Dialector.Name() == "sqlite" {
		var amounts []decimal.Decimal
		if err := q.Pluck("amount", &amounts).Error; err != nil {
			return decimal.Zero, translate(err)
		}
		total := decimal.Zero
		for _, a := range amounts {
			total = total.Add(a)
		}
		return total, nil
	}

	var total decimal.NullDecimal
	if err := q.Select("SUM(amount)").Row().Scan(&total); err != nil {
		return decimal.Zero, translate(err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
