package repositories

import (
	"context"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/core/domain"

	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(conn(ctx, r.db).Create(user).Error)
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Update saves user fields
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return translate(conn(ctx, r.db).Save(user).Error)
}

// Delete deletes a user
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List lists users with pagination
func (r *userRepository) List(ctx context.Context, opts ListOptions) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	if err := conn(ctx, r.db).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := paginate(conn(ctx, r.db).Order("id ASC"), opts)
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, translate(err)
	}

	return users, total, nil
}

// ListByRoles returns every user holding one of roles
func (r *userRepository) ListByRoles(ctx context.Context, roles ...domain.Role) ([]*models.User, error) {
	var users []*models.User
	err := conn(ctx, r.db).
		Where("role IN ?", roles).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, translate(err)
}

// CountByRole counts users with a role
func (r *userRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, translate(err)
}

// paginate applies offset/limit when a limit is set
func paginate(q *gorm.DB, opts ListOptions) *gorm.DB {
	if opts.Limit > 0 {
		q = q.Offset(opts.Offset).Limit(opts.Limit)
	}
	return q
}

// ownedBy restricts a table with a member_id column to rows of one user.
// ownerUserID 0 leaves the query unrestricted.
func ownedBy(q *gorm.DB, ownerUserID uint) *gorm.DB {
	if ownerUserID == 0 {
		return q
	}
	return q.Where("member_id IN (?)",
		q.Session(&gorm.Session{NewDB: true}).Model(&models.Member{}).Select("id").Where("user_id = ?", ownerUserID))
}
