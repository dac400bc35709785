package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/authz"
	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultClaimType = "general"

// ClaimService handles the claim lifecycle
type ClaimService struct {
	claimRepo  repositories.ClaimRepository
	policyRepo repositories.PolicyRepository
	notifier   Notifier
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewClaimService creates a new claim service
func NewClaimService(
	claimRepo repositories.ClaimRepository,
	policyRepo repositories.PolicyRepository,
	notifier Notifier,
	log *zap.Logger,
	m *metrics.Metrics,
) *ClaimService {
	return &ClaimService{
		claimRepo:  claimRepo,
		policyRepo: policyRepo,
		notifier:   notifier,
		log:        log.Named("claims"),
		metrics:    m,
		now:        time.Now,
	}
}

// CreateClaimInput represents claim submission input
type CreateClaimInput struct {
	PolicyID    uint            `json:"policy_id" validate:"required"`
	Description string          `json:"description" validate:"max=2000"`
	ClaimAmount decimal.Decimal `json:"claim_amount"`
	ClaimType   string          `json:"claim_type" validate:"max=50"`
}

// UpdateClaimStatusInput represents a status change
type UpdateClaimStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// Create submits a claim against a policy and tells every staff user about it
func (s *ClaimService) Create(ctx context.Context, actor *domain.Actor, input *CreateClaimInput) (*models.Claim, error) {
	if err := authz.Authorize(actor, authz.ClaimCreate, authz.NoOwner); err != nil {
		return nil, err
	}
	if err := validateAmount("claim_amount", input.ClaimAmount); err != nil {
		return nil, err
	}

	policy, err := s.policyRepo.GetByID(ctx, input.PolicyID)
	if err != nil {
		return nil, orNotFound(err, ErrPolicyNotFound)
	}
	if err := authz.Authorize(actor, authz.ClaimCreate, ownerOf(policy.Member)); err != nil {
		return nil, err
	}

	claimType := strings.TrimSpace(input.ClaimType)
	if claimType == "" {
		claimType = defaultClaimType
	}

	claim := &models.Claim{
		PolicyID:    policy.ID,
		MemberID:    policy.MemberID,
		Description: input.Description,
		ClaimAmount: input.ClaimAmount,
		ClaimType:   claimType,
		Status:      domain.ClaimPending,
		SubmittedAt: s.now(),
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, err
	}
	s.metrics.ClaimCreated()

	submitter := actor.Name
	if submitter == "" {
		submitter = actor.Email
	}
	if _, err := s.notifier.NotifyStaff(ctx,
		"New Claim Submitted",
		fmt.Sprintf("A new claim (ID: %d) was submitted by %s.", claim.ID, submitter),
	); err != nil {
		s.log.Error("failed to notify staff of new claim", zap.Uint("claim_id", claim.ID), zap.Error(err))
	}

	s.log.Info("claim submitted",
		zap.Uint("claim_id", claim.ID),
		zap.Uint("policy_id", claim.PolicyID),
		zap.Uint("actor_id", actor.UserID))
	return claim, nil
}

// UpdateStatus moves a claim along its transition table and tells the owner
func (s *ClaimService) UpdateStatus(ctx context.Context, actor *domain.Actor, id uint, input *UpdateClaimStatusInput) (*models.Claim, error) {
	if err := authz.Authorize(actor, authz.ClaimUpdateStatus, authz.NoOwner); err != nil {
		return nil, err
	}
	next, err := domain.ParseClaimStatus(input.Status)
	if err != nil {
		return nil, err
	}

	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrClaimNotFound)
	}
	if !claim.Status.CanTransition(next) {
		return nil, transitionError("claim", string(claim.Status), string(next))
	}

	prev := claim.Status
	ok, err := s.claimRepo.UpdateStatus(ctx, id, prev, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}
	claim.Status = next
	s.metrics.ClaimTransition(string(next))

	s.notifyOwner(ctx, claim.Member, "Claim Status Updated",
		fmt.Sprintf("Hello %s, your claim #%d has been updated from '%s' to '%s'.", nameOf(claim.Member), claim.ID, prev, next))

	s.log.Info("claim status updated",
		zap.Uint("claim_id", claim.ID),
		zap.String("from", string(prev)),
		zap.String("status", string(next)),
		zap.Uint("actor_id", actor.UserID))
	return claim, nil
}

// Get returns a claim the actor may see
func (s *ClaimService) Get(ctx context.Context, actor *domain.Actor, id uint) (*models.Claim, error) {
	if err := authz.Authorize(actor, authz.ClaimRead, authz.NoOwner); err != nil {
		return nil, err
	}
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrClaimNotFound)
	}
	if err := authz.Authorize(actor, authz.ClaimRead, ownerOf(claim.Member)); err != nil {
		return nil, err
	}
	return claim, nil
}

// List lists claims newest first; members only see their own
func (s *ClaimService) List(ctx context.Context, actor *domain.Actor, opts repositories.ListOptions) ([]*models.Claim, int64, error) {
	if err := authz.Authorize(actor, authz.ClaimList, authz.NoOwner); err != nil {
		return nil, 0, err
	}
	return s.claimRepo.List(ctx, authz.ScopeUserID(actor), opts)
}

func (s *ClaimService) notifyOwner(ctx context.Context, member *models.Member, title, message string) {
	if member == nil {
		s.log.Warn("claim owner unresolved, notification skipped", zap.String("title", title))
		return
	}
	if _, err := s.notifier.Notify(ctx, member.UserID, title, message); err != nil {
		s.log.Error("failed to notify claim owner", zap.Uint("user_id", member.UserID), zap.Error(err))
	}
}
