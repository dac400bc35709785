package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/adapters/realtime"
	"github.com/Taistois/mims/internal/core/authz"
	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/pkg/metrics"

	"go.uber.org/zap"
)

// pushTimeout bounds a single realtime push. The push outlives the request
// context so a client hanging up does not cancel delivery to others.
const pushTimeout = 3 * time.Second

// EventNotification is the realtime event name for a new notification.
const EventNotification = "notification"

// Notifier records notifications for users. Lifecycle services depend on this
// rather than on NotificationService directly.
type Notifier interface {
	Notify(ctx context.Context, userID uint, title, message string) (*models.Notification, error)
	NotifyStaff(ctx context.Context, title, message string) ([]*models.Notification, error)
}

// NotificationService persists notifications and pushes them to connected users
type NotificationService struct {
	notifRepo repositories.NotificationRepository
	userRepo  repositories.UserRepository
	pusher    realtime.Pusher
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

var _ Notifier = (*NotificationService)(nil)

// NewNotificationService creates a new notification service. pusher may be nil.
func NewNotificationService(
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	pusher realtime.Pusher,
	log *zap.Logger,
	m *metrics.Metrics,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		pusher:    pusher,
		log:       log.Named("notifications"),
		metrics:   m,
		now:       time.Now,
	}
}

// CreateNotificationInput is a manual notification from staff
type CreateNotificationInput struct {
	UserID  uint   `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=255"`
	Message string `json:"message" validate:"required"`
}

// Notify stores a notification for userID, then pushes it best effort.
// Only the store write can fail the call.
func (s *NotificationService) Notify(ctx context.Context, userID uint, title, message string) (*models.Notification, error) {
	n := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.metrics.NotificationEmitted()
	s.push(ctx, n)
	return n, nil
}

// NotifyStaff notifies every admin and insurance_staff user that exists now.
// Users added later get nothing for this event.
func (s *NotificationService) NotifyStaff(ctx context.Context, title, message string) ([]*models.Notification, error) {
	staff, err := s.userRepo.ListByRoles(ctx, domain.StaffRoles...)
	if err != nil {
		return nil, err
	}

	created := make([]*models.Notification, 0, len(staff))
	var errs []error
	for _, u := range staff {
		n, err := s.Notify(ctx, u.ID, title, message)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		created = append(created, n)
	}
	return created, errors.Join(errs...)
}

func (s *NotificationService) push(ctx context.Context, n *models.Notification) {
	if s.pusher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := s.pusher.Push(pctx, n.UserID, realtime.Event{Event: EventNotification, Data: n}); err != nil {
		s.metrics.PushFailed()
		s.log.Warn("realtime push failed",
			zap.Uint("user_id", n.UserID),
			zap.Uint("notification_id", n.ID),
			zap.Error(err))
	}
}

// Create sends a manual notification to any user
func (s *NotificationService) Create(ctx context.Context, actor *domain.Actor, input *CreateNotificationInput) (*models.Notification, error) {
	if err := authz.Authorize(actor, authz.NotificationCreate, authz.NoOwner); err != nil {
		return nil, err
	}
	if input.UserID == 0 {
		return nil, ErrMissingRecipient
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Message) == "" {
		return nil, ErrEmptyNotification
	}
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	return s.Notify(ctx, input.UserID, input.Title, input.Message)
}

// ListMine lists the actor's notifications newest first
func (s *NotificationService) ListMine(ctx context.Context, actor *domain.Actor, opts repositories.ListOptions) ([]*models.Notification, int64, error) {
	if err := authz.Authorize(actor, authz.NotificationList, authz.NoOwner); err != nil {
		return nil, 0, err
	}
	return s.notifRepo.ListByUser(ctx, actor.UserID, opts)
}

// UnreadCount counts the actor's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, actor *domain.Actor) (int64, error) {
	if err := authz.Authorize(actor, authz.NotificationList, authz.NoOwner); err != nil {
		return 0, err
	}
	return s.notifRepo.CountUnread(ctx, actor.UserID)
}

// MarkRead marks one of the actor's notifications read. Reading twice keeps
// the first read_at.
func (s *NotificationService) MarkRead(ctx context.Context, actor *domain.Actor, id uint) (*models.Notification, error) {
	n, err := s.owned(ctx, actor, authz.NotificationMarkRead, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}

	at := s.now()
	if err := s.notifRepo.MarkRead(ctx, id, at); err != nil {
		return nil, err
	}
	n.IsRead = true
	n.ReadAt = &at
	return n, nil
}

// Delete removes one of the actor's notifications
func (s *NotificationService) Delete(ctx context.Context, actor *domain.Actor, id uint) error {
	if _, err := s.owned(ctx, actor, authz.NotificationDelete, id); err != nil {
		return err
	}
	return orNotFound(s.notifRepo.Delete(ctx, id), ErrNotificationNotFound)
}

// owned loads a notification the actor owns. Notifications are private to
// their recipient whatever the role.
func (s *NotificationService) owned(ctx context.Context, actor *domain.Actor, action authz.Action, id uint) (*models.Notification, error) {
	if err := authz.Authorize(actor, action, authz.NoOwner); err != nil {
		return nil, err
	}
	n, err := s.notifRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrNotificationNotFound)
	}
	if n.UserID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return n, nil
}
