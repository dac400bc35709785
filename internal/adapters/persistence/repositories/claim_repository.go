package repositories

import (
	"context"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/core/domain"

	"gorm.io/gorm"
)

// claimRepository implements ClaimRepository interface
type claimRepository struct {
	db *gorm.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

// Create creates a new claim
func (r *claimRepository) Create(ctx context.Context, claim *models.Claim) error {
	return translate(conn(ctx, r.db).Omit("Policy", "Member").Create(claim).Error)
}

// GetByID gets a claim with its owning member and user
func (r *claimRepository) GetByID(ctx context.Context, id uint) (*models.Claim, error) {
	var claim models.Claim
	err := conn(ctx, r.db).
		Preload("Member.User").
		Where("id = ?", id).
		First(&claim).Error
	if err != nil {
		return nil, translate(err)
	}
	return &claim, nil
}

// UpdateStatus changes status only when the claim is still in from
func (r *claimRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.ClaimStatus) (bool, error) {
	res := conn(ctx, r.db).
		Model(&models.Claim{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// List lists claims newest first by submission time
func (r *claimRepository) List(ctx context.Context, ownerUserID uint, opts ListOptions) ([]*models.Claim, int64, error) {
	var claims []*models.Claim
	var total int64

	if err := ownedBy(conn(ctx, r.db).Model(&models.Claim{}), ownerUserID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := ownedBy(conn(ctx, r.db), ownerUserID).Order("submitted_at DESC").Order("id DESC")
	if err := paginate(q, opts).Find(&claims).Error; err != nil {
		return nil, 0, translate(err)
	}
	return claims, total, nil
}
