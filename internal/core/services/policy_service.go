package services

import (
	"context"
	"strings"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/authz"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PolicyService handles insurance policies
type PolicyService struct {
	policyRepo repositories.PolicyRepository
	memberRepo repositories.MemberRepository
	log        *zap.Logger
}

// NewPolicyService creates a new policy service
func NewPolicyService(policyRepo repositories.PolicyRepository, memberRepo repositories.MemberRepository, log *zap.Logger) *PolicyService {
	return &PolicyService{
		policyRepo: policyRepo,
		memberRepo: memberRepo,
		log:        log.Named("policies"),
	}
}

// CreatePolicyInput represents policy creation input
type CreatePolicyInput struct {
	MemberID       uint            `json:"member_id" validate:"required"`
	PolicyType     string          `json:"policy_type" validate:"required,max=50"`
	PremiumAmount  decimal.Decimal `json:"premium_amount"`
	CoverageAmount decimal.Decimal `json:"coverage_amount"`
	StartDate      string          `json:"start_date" validate:"required"`
	EndDate        string          `json:"end_date" validate:"required"`
	Status         string          `json:"status"`
}

// UpdatePolicyInput represents a partial policy update
type UpdatePolicyInput struct {
	PolicyType     *string          `json:"policy_type" validate:"omitempty,max=50"`
	PremiumAmount  *decimal.Decimal `json:"premium_amount"`
	CoverageAmount *decimal.Decimal `json:"coverage_amount"`
	StartDate      *string          `json:"start_date"`
	EndDate        *string          `json:"end_date"`
	Status         *string          `json:"status"`
}

// Create issues a policy to a member
func (s *PolicyService) Create(ctx context.Context, actor *domain.Actor, input *CreatePolicyInput) (*models.Policy, error) {
	if err := authz.Authorize(actor, authz.PolicyCreate, authz.NoOwner); err != nil {
		return nil, err
	}

	policy := &models.Policy{
		MemberID:       input.MemberID,
		PolicyType:     strings.TrimSpace(input.PolicyType),
		PremiumAmount:  input.PremiumAmount,
		CoverageAmount: input.CoverageAmount,
	}
	var err error
	if policy.StartDate, err = parseDate("start_date", input.StartDate); err != nil {
		return nil, err
	}
	if policy.EndDate, err = parseDate("end_date", input.EndDate); err != nil {
		return nil, err
	}
	if policy.Status, err = domain.ParsePolicyStatus(input.Status); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		return nil, orNotFound(err, ErrMemberNotFound)
	}
	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, err
	}
	policy.Member = member

	s.log.Info("policy created", zap.Uint("policy_id", policy.ID), zap.Uint("member_id", policy.MemberID))
	return policy, nil
}

// Get returns a policy the actor may see
func (s *PolicyService) Get(ctx context.Context, actor *domain.Actor, id uint) (*models.Policy, error) {
	if err := authz.Authorize(actor, authz.PolicyRead, authz.NoOwner); err != nil {
		return nil, err
	}
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrPolicyNotFound)
	}
	if err := authz.Authorize(actor, authz.PolicyRead, ownerOf(policy.Member)); err != nil {
		return nil, err
	}
	return policy, nil
}

// List lists policies newest first; members only see their own
func (s *PolicyService) List(ctx context.Context, actor *domain.Actor, opts repositories.ListOptions) ([]*models.Policy, int64, error) {
	if err := authz.Authorize(actor, authz.PolicyList, authz.NoOwner); err != nil {
		return nil, 0, err
	}
	return s.policyRepo.List(ctx, authz.ScopeUserID(actor), opts)
}

// Update changes the fields present in input
func (s *PolicyService) Update(ctx context.Context, actor *domain.Actor, id uint, input *UpdatePolicyInput) (*models.Policy, error) {
	if err := authz.Authorize(actor, authz.PolicyUpdate, authz.NoOwner); err != nil {
		return nil, err
	}
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrPolicyNotFound)
	}

	if input.PolicyType != nil {
		policy.PolicyType = strings.TrimSpace(*input.PolicyType)
	}
	if input.PremiumAmount != nil {
		policy.PremiumAmount = *input.PremiumAmount
	}
	if input.CoverageAmount != nil {
		policy.CoverageAmount = *input.CoverageAmount
	}
	if input.StartDate != nil {
		if policy.StartDate, err = parseDate("start_date", *input.StartDate); err != nil {
			return nil, err
		}
	}
	if input.EndDate != nil {
		if policy.EndDate, err = parseDate("end_date", *input.EndDate); err != nil {
			return nil, err
		}
	}
	if input.Status != nil {
		if policy.Status, err = domain.ParsePolicyStatus(*input.Status); err != nil {
			return nil, err
		}
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// Delete cancels a policy by removing it
func (s *PolicyService) Delete(ctx context.Context, actor *domain.Actor, id uint) error {
	if err := authz.Authorize(actor, authz.PolicyDelete, authz.NoOwner); err != nil {
		return err
	}
	if err := s.policyRepo.Delete(ctx, id); err != nil {
		return orNotFound(err, ErrPolicyNotFound)
	}
	s.log.Info("policy deleted", zap.Uint("policy_id", id), zap.Uint("actor_id", actor.UserID))
	return nil
}

func validatePolicy(p *models.Policy) error {
	if p.PolicyType == "" {
		return domain.Validationf("policy_type is required")
	}
	if err := validateAmount("premium_amount", p.PremiumAmount); err != nil {
		return err
	}
	if err := validateAmount("coverage_amount", p.CoverageAmount); err != nil {
		return err
	}
	if !p.EndDate.After(p.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}
