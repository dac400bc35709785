package services

import (
	"context"
	"strings"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/authz"
	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/pkg/password"

	"go.uber.org/zap"
)

// UserService handles user management business logic
type UserService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.RefreshTokenRepository
	log       *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	tokenRepo repositories.RefreshTokenRepository,
	log *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		log:       log.Named("users"),
	}
}

// RegisterInput represents admin registration of a user
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"max=20"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Register creates a user with any of the three roles
func (s *UserService) Register(ctx context.Context, actor *domain.Actor, input *RegisterInput) (*models.UserResponse, error) {
	if err := authz.Authorize(actor, authz.UserRegister, authz.NoOwner); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Phone:    input.Phone,
		Password: hashed,
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race on the unique email index
		if errorsIsConflict(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.log.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Uint("actor_id", actor.UserID))
	return user.ToResponse(), nil
}

// List lists all users
func (s *UserService) List(ctx context.Context, actor *domain.Actor, opts repositories.ListOptions) ([]*models.UserResponse, int64, error) {
	if err := authz.Authorize(actor, authz.UserList, authz.NoOwner); err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepo.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	return out, total, nil
}

// Delete deletes a user other than the actor
func (s *UserService) Delete(ctx context.Context, actor *domain.Actor, id uint) error {
	if err := authz.Authorize(actor, authz.UserDelete, authz.NoOwner); err != nil {
		return err
	}
	if id == actor.UserID {
		return ErrCannotDeleteSelf
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return orNotFound(err, ErrUserNotFound)
	}
	s.log.Info("user deleted", zap.Uint("user_id", id), zap.Uint("actor_id", actor.UserID))
	return nil
}

// ChangePassword changes the actor's password and signs out other sessions
func (s *UserService) ChangePassword(ctx context.Context, actor *domain.Actor, input *ChangePasswordInput) error {
	if actor.Anonymous() {
		return domain.ErrUnauthenticated
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return orNotFound(err, ErrUserNotFound)
	}
	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	return s.tokenRepo.RevokeAllByUserID(ctx, user.ID)
}

func errorsIsConflict(err error) bool {
	return domain.KindOf(err) == domain.KindConflict
}
