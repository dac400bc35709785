package repositories

import (
	"context"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// notificationRepository implements NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create persists a notification
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return translate(conn(ctx, r.db).Omit("User").Create(n).Error)
}

// GetByID gets a notification
func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := conn(ctx, r.db).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

// ListByUser lists a user's notifications newest first
func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, opts ListOptions) ([]*models.Notification, int64, error) {
	var list []*models.Notification
	var total int64

	if err := conn(ctx, r.db).Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if err := paginate(q, opts).Find(&list).Error; err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

// CountUnread counts unread notifications of a user
func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, translate(err)
}

// MarkRead flags a notification read; an already read one keeps its read_at
func (r *notificationRepository) MarkRead(ctx context.Context, id uint, at time.Time) error {
	return translate(conn(ctx, r.db).
		Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error)
}

// Delete deletes a notification
func (r *notificationRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Notification{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
