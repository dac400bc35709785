package repositories

import (
	"context"

	"github.com/Taistois/mims/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// policyRepository implements PolicyRepository interface
type policyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

// Create creates a new policy
func (r *policyRepository) Create(ctx context.Context, policy *models.Policy) error {
	return translate(conn(ctx, r.db).Omit("Member").Create(policy).Error)
}

// GetByID gets a policy with its member
func (r *policyRepository) GetByID(ctx context.Context, id uint) (*models.Policy, error) {
	var policy models.Policy
	err := conn(ctx, r.db).
		Preload("Member.User").
		Where("id = ?", id).
		First(&policy).Error
	if err != nil {
		return nil, translate(err)
	}
	return &policy, nil
}

// Update saves policy fields
func (r *policyRepository) Update(ctx context.Context, policy *models.Policy) error {
	return translate(conn(ctx, r.db).Omit("Member").Save(policy).Error)
}

// Delete hard deletes a policy
func (r *policyRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Policy{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List lists policies newest first
func (r *policyRepository) List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Policy, int64, error) {
	var policies []*models.Policy
	var total int64

	if err := ownedBy(conn(ctx, r.db).Model(&models.Policy{}), ownerUserID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := ownedBy(conn(ctx, r.db), ownerUserID).Order("created_at DESC").Order("id DESC")
	if err := paginate(q, opts).Find(&policies).Error; err != nil {
		return nil, 0, translate(err)
	}
	return policies, total, nil
}
