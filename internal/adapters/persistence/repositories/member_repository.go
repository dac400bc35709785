package repositories

import (
	"context"

	"github.com/Taistois/mims/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create creates a new member
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return translate(conn(ctx, r.db).Omit("User").Create(member).Error)
}

// GetByID gets a member with its user
func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := conn(ctx, r.db).Preload("User").Where("id = ?", id).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

// GetByUserID gets the member row of a user
func (r *memberRepository) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	var member models.Member
	if err := conn(ctx, r.db).Preload("User").Where("user_id = ?", userID).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

// Update saves member fields
func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return translate(conn(ctx, r.db).Omit("User").Save(member).Error)
}

// Delete deletes a member
func (r *memberRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Member{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List lists members with their users
func (r *memberRepository) List(ctx context.Context, opts ListOptions) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	if err := conn(ctx, r.db).Model(&models.Member{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := paginate(conn(ctx, r.db).Preload("User").Order("id DESC"), opts)
	if err := q.Find(&members).Error; err != nil {
		return nil, 0, translate(err)
	}
	return members, total, nil
}
