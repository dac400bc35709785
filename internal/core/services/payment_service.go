package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/authz"
	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService records claim disbursements and reads every kind of payment
type PaymentService struct {
	tx          repositories.TxManager
	paymentRepo repositories.PaymentRepository
	claimRepo   repositories.ClaimRepository
	memberRepo  repositories.MemberRepository
	notifier    Notifier
	log         *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	tx repositories.TxManager,
	paymentRepo repositories.PaymentRepository,
	claimRepo repositories.ClaimRepository,
	memberRepo repositories.MemberRepository,
	notifier Notifier,
	log *zap.Logger,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		tx:          tx,
		paymentRepo: paymentRepo,
		claimRepo:   claimRepo,
		memberRepo:  memberRepo,
		notifier:    notifier,
		log:         log.Named("payments"),
		metrics:     m,
		now:         time.Now,
	}
}

// ClaimPaymentInput represents a disbursement against an approved claim
type ClaimPaymentInput struct {
	ClaimID       uint            `json:"claim_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" validate:"required,max=50"`
	Status        string          `json:"status"`
}

// RecordClaimPayment pays out an approved claim. A successful payment moves
// the claim to paid in the same transaction.
func (s *PaymentService) RecordClaimPayment(ctx context.Context, actor *domain.Actor, input *ClaimPaymentInput) (*models.Payment, error) {
	if err := authz.Authorize(actor, authz.PaymentRecord, authz.NoOwner); err != nil {
		return nil, err
	}
	if err := validateAmount("amount", input.Amount); err != nil {
		return nil, err
	}
	status, err := domain.ParsePaymentStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var (
		claim   *models.Claim
		payment *models.Payment
	)
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		claim, err = s.claimRepo.GetByID(ctx, input.ClaimID)
		if err != nil {
			return orNotFound(err, ErrClaimNotFound)
		}
		if claim.Status != domain.ClaimApproved {
			return ErrClaimNotApproved
		}

		payment = models.NewClaimPayment(claim, input.Amount, input.PaymentMethod, status)
		payment.PaymentDate = s.now()
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		if status != domain.PaymentStatusSuccess {
			return nil
		}
		ok, err := s.claimRepo.UpdateStatus(ctx, claim.ID, domain.ClaimApproved, domain.ClaimPaid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrentUpdate
		}
		claim.Status = domain.ClaimPaid
		return nil
	})
	if err != nil {
		return nil, err
	}

	if claim.Status == domain.ClaimPaid {
		s.metrics.ClaimTransition(string(domain.ClaimPaid))
	}

	if claim.Member != nil {
		msg := fmt.Sprintf("Hello %s, a payment of %s for your claim (ID: %d) has been successfully recorded using %s.",
			nameOf(claim.Member), money(payment.Amount), claim.ID, payment.Method)
		if _, err := s.notifier.Notify(ctx, claim.Member.UserID, "Claim Payment Processed", msg); err != nil {
			s.log.Error("failed to notify claim owner of payment", zap.Uint("claim_id", claim.ID), zap.Error(err))
		}
	}

	s.log.Info("claim payment recorded",
		zap.Uint("payment_id", payment.ID),
		zap.Uint("claim_id", claim.ID),
		zap.String("amount", money(payment.Amount)),
		zap.String("status", string(payment.Status)))
	return payment, nil
}

// Get returns a payment the actor may see
func (s *PaymentService) Get(ctx context.Context, actor *domain.Actor, id uint) (*models.Payment, error) {
	if err := authz.Authorize(actor, authz.PaymentRead, authz.NoOwner); err != nil {
		return nil, err
	}
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrPaymentNotFound)
	}

	owner := unknownOwner
	if member, err := s.memberRepo.GetByID(ctx, payment.MemberID); err == nil {
		owner = member.UserID
	} else if !repositories.IsNotFound(err) {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.PaymentRead, owner); err != nil {
		return nil, err
	}
	return payment, nil
}

// List lists payments newest first; members only see their own
func (s *PaymentService) List(ctx context.Context, actor *domain.Actor, opts repositories.ListOptions) ([]*models.Payment, int64, error) {
	if err := authz.Authorize(actor, authz.PaymentList, authz.NoOwner); err != nil {
		return nil, 0, err
	}
	return s.paymentRepo.List(ctx, authz.ScopeUserID(actor), opts)
}

// Delete removes a payment record
func (s *PaymentService) Delete(ctx context.Context, actor *domain.Actor, id uint) error {
	if err := authz.Authorize(actor, authz.PaymentDelete, authz.NoOwner); err != nil {
		return err
	}
	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return orNotFound(err, ErrPaymentNotFound)
	}
	s.log.Info("payment deleted", zap.Uint("payment_id", id), zap.Uint("actor_id", actor.UserID))
	return nil
}
