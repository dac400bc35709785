package services

import (
	"context"
	"strings"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/authz"
	"github.com/Taistois/mims/internal/core/domain"

	"go.uber.org/zap"
)

// MemberService handles member profiles. Each member belongs to exactly one
// user with role member.
type MemberService struct {
	memberRepo repositories.MemberRepository
	userRepo   repositories.UserRepository
	log        *zap.Logger
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo repositories.MemberRepository, userRepo repositories.UserRepository, log *zap.Logger) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		userRepo:   userRepo,
		log:        log.Named("members"),
	}
}

// CreateMemberInput represents member creation input
type CreateMemberInput struct {
	UserID      uint   `json:"user_id" validate:"required"`
	NationalID  string `json:"national_id" validate:"required,max=50"`
	Address     string `json:"address" validate:"max=500"`
	DateOfBirth string `json:"date_of_birth"`
}

// UpdateMemberInput represents a partial member update
type UpdateMemberInput struct {
	NationalID  *string `json:"national_id" validate:"omitempty,max=50"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	DateOfBirth *string `json:"date_of_birth"`
}

// Create attaches a member profile to an existing member-role user
func (s *MemberService) Create(ctx context.Context, actor *domain.Actor, input *CreateMemberInput) (*models.Member, error) {
	if err := authz.Authorize(actor, authz.MemberCreate, authz.NoOwner); err != nil {
		return nil, err
	}

	nationalID := strings.TrimSpace(input.NationalID)
	if nationalID == "" {
		return nil, domain.Validationf("national_id is required")
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	if user.Role != domain.RoleMember {
		return nil, ErrUserNotMember
	}
	if _, err := s.memberRepo.GetByUserID(ctx, user.ID); err == nil {
		return nil, ErrMemberExists
	} else if !repositories.IsNotFound(err) {
		return nil, err
	}

	member := &models.Member{
		UserID:     user.ID,
		NationalID: nationalID,
		Address:    input.Address,
	}
	if input.DateOfBirth != "" {
		dob, err := parseDate("date_of_birth", input.DateOfBirth)
		if err != nil {
			return nil, err
		}
		member.DateOfBirth = &dob
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	member.User = user

	s.log.Info("member created", zap.Uint("member_id", member.ID), zap.Uint("user_id", user.ID))
	return member, nil
}

// Get returns a member profile the actor may see
func (s *MemberService) Get(ctx context.Context, actor *domain.Actor, id uint) (*models.Member, error) {
	if err := authz.Authorize(actor, authz.MemberRead, authz.NoOwner); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrMemberNotFound)
	}
	if err := authz.Authorize(actor, authz.MemberRead, member.UserID); err != nil {
		return nil, err
	}
	return member, nil
}

// GetMine returns the actor's own member profile
func (s *MemberService) GetMine(ctx context.Context, actor *domain.Actor) (*models.Member, error) {
	if err := authz.Authorize(actor, authz.MemberRead, authz.NoOwner); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, orNotFound(err, ErrMemberNotFound)
	}
	return member, nil
}

// List lists all members
func (s *MemberService) List(ctx context.Context, actor *domain.Actor, opts repositories.ListOptions) ([]*models.Member, int64, error) {
	if err := authz.Authorize(actor, authz.MemberList, authz.NoOwner); err != nil {
		return nil, 0, err
	}
	return s.memberRepo.List(ctx, opts)
}

// Update changes the fields present in input
func (s *MemberService) Update(ctx context.Context, actor *domain.Actor, id uint, input *UpdateMemberInput) (*models.Member, error) {
	if err := authz.Authorize(actor, authz.MemberUpdate, authz.NoOwner); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrMemberNotFound)
	}

	if input.NationalID != nil {
		nationalID := strings.TrimSpace(*input.NationalID)
		if nationalID == "" {
			return nil, domain.Validationf("national_id cannot be empty")
		}
		member.NationalID = nationalID
	}
	if input.Address != nil {
		member.Address = *input.Address
	}
	if input.DateOfBirth != nil {
		if *input.DateOfBirth == "" {
			member.DateOfBirth = nil
		} else {
			dob, err := parseDate("date_of_birth", *input.DateOfBirth)
			if err != nil {
				return nil, err
			}
			member.DateOfBirth = &dob
		}
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Delete removes a member profile
func (s *MemberService) Delete(ctx context.Context, actor *domain.Actor, id uint) error {
	if err := authz.Authorize(actor, authz.MemberDelete, authz.NoOwner); err != nil {
		return err
	}
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		return orNotFound(err, ErrMemberNotFound)
	}
	s.log.Info("member deleted", zap.Uint("member_id", id), zap.Uint("actor_id", actor.UserID))
	return nil
}
