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

const maxLoanMonths = 600

var maxInterestRate = decimal.RequireFromString("999.99")

// LoanService handles loans and their repayment ledger
type LoanService struct {
	tx          repositories.TxManager
	loanRepo    repositories.LoanRepository
	memberRepo  repositories.MemberRepository
	paymentRepo repositories.PaymentRepository
	notifier    Notifier
	log         *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(
	tx repositories.TxManager,
	loanRepo repositories.LoanRepository,
	memberRepo repositories.MemberRepository,
	paymentRepo repositories.PaymentRepository,
	notifier Notifier,
	log *zap.Logger,
	m *metrics.Metrics,
) *LoanService {
	return &LoanService{
		tx:          tx,
		loanRepo:    loanRepo,
		memberRepo:  memberRepo,
		paymentRepo: paymentRepo,
		notifier:    notifier,
		log:         log.Named("loans"),
		metrics:     m,
		now:         time.Now,
	}
}

// CreateLoanInput represents loan creation input
type CreateLoanInput struct {
	MemberID     uint            `json:"member_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Duration     int             `json:"duration" validate:"required,gt=0"`
}

// UpdateLoanStatusInput represents an explicit status change
type UpdateLoanStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// RepaymentInput represents one repayment. A retried request carrying the
// same IdempotencyKey returns the first result instead of paying twice.
type RepaymentInput struct {
	LoanID         uint            `json:"loan_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method" validate:"required,max=50"`
	IdempotencyKey string          `json:"idempotency_key" validate:"max=64"`
}

// RepaymentResult is the outcome of RecordRepayment
type RepaymentResult struct {
	Repayment   *models.Payment   `json:"repayment"`
	TotalPaid   decimal.Decimal   `json:"total_paid"`
	LoanStatus  domain.LoanStatus `json:"loan_status"`
	FullyRepaid bool              `json:"fully_repaid"`
	Replayed    bool              `json:"replayed"`
}

// Create issues a pending loan to a member
func (s *LoanService) Create(ctx context.Context, actor *domain.Actor, input *CreateLoanInput) (*models.Loan, error) {
	if err := authz.Authorize(actor, authz.LoanCreate, authz.NoOwner); err != nil {
		return nil, err
	}
	if err := validateAmount("amount", input.Amount); err != nil {
		return nil, err
	}
	if input.InterestRate.IsNegative() || input.InterestRate.GreaterThan(maxInterestRate) {
		return nil, ErrInvalidInterest
	}
	if input.Duration < 1 || input.Duration > maxLoanMonths {
		return nil, ErrInvalidDuration
	}

	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		return nil, orNotFound(err, ErrMemberNotFound)
	}

	loan := &models.Loan{
		MemberID:     member.ID,
		Amount:       input.Amount,
		InterestRate: input.InterestRate,
		Duration:     input.Duration,
		Status:       domain.LoanPending,
		DueDate:      s.now().AddDate(0, input.Duration, 0),
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, member, "Loan Created",
		fmt.Sprintf("Hello %s, your loan of %s has been created with status '%s'.",
			nameOf(member), money(loan.Amount), loan.Status))

	s.log.Info("loan created",
		zap.Uint("loan_id", loan.ID),
		zap.Uint("member_id", loan.MemberID),
		zap.String("amount", money(loan.Amount)))
	return loan, nil
}

// UpdateStatus applies an explicit status change from the transition table
func (s *LoanService) UpdateStatus(ctx context.Context, actor *domain.Actor, id uint, input *UpdateLoanStatusInput) (*models.Loan, error) {
	if err := authz.Authorize(actor, authz.LoanUpdateStatus, authz.NoOwner); err != nil {
		return nil, err
	}
	next, err := domain.ParseLoanStatus(input.Status)
	if err != nil {
		return nil, err
	}

	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrLoanNotFound)
	}
	if !loan.Status.CanTransition(next) {
		return nil, transitionError("loan", string(loan.Status), string(next))
	}

	ok, err := s.loanRepo.UpdateStatus(ctx, id, loan.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}
	loan.Status = next
	s.metrics.LoanTransition(string(next))

	s.notifyOwner(ctx, loan.Member, "Loan Status Updated",
		fmt.Sprintf("Hello %s, your loan #%d has been updated to '%s'.", nameOf(loan.Member), loan.ID, next))
	return loan, nil
}

// Get returns a loan the actor may see
func (s *LoanService) Get(ctx context.Context, actor *domain.Actor, id uint) (*models.Loan, error) {
	if err := authz.Authorize(actor, authz.LoanRead, authz.NoOwner); err != nil {
		return nil, err
	}
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrLoanNotFound)
	}
	if err := authz.Authorize(actor, authz.LoanRead, ownerOf(loan.Member)); err != nil {
		return nil, err
	}
	return loan, nil
}

// List lists loans newest first; members only see their own
func (s *LoanService) List(ctx context.Context, actor *domain.Actor, opts repositories.ListOptions) ([]*models.Loan, int64, error) {
	if err := authz.Authorize(actor, authz.LoanList, authz.NoOwner); err != nil {
		return nil, 0, err
	}
	return s.loanRepo.List(ctx, authz.ScopeUserID(actor), opts)
}

// Delete removes a loan and its repayments
func (s *LoanService) Delete(ctx context.Context, actor *domain.Actor, id uint) error {
	if err := authz.Authorize(actor, authz.LoanDelete, authz.NoOwner); err != nil {
		return err
	}
	if err := s.loanRepo.Delete(ctx, id); err != nil {
		return orNotFound(err, ErrLoanNotFound)
	}
	s.log.Info("loan deleted", zap.Uint("loan_id", id), zap.Uint("actor_id", actor.UserID))
	return nil
}

// RecordRepayment books a repayment and settles the loan once the principal
// is covered.
//
// The loan row is locked for the whole read-sum-update sequence, so concurrent
// repayments on one loan are serialized and exactly one of them performs the
// transition to repaid. A repaid loan still accepts payments; its status stays
// repaid.
func (s *LoanService) RecordRepayment(ctx context.Context, actor *domain.Actor, loanID uint, input *RepaymentInput) (*RepaymentResult, error) {
	if err := authz.Authorize(actor, authz.RepaymentRecord, authz.NoOwner); err != nil {
		return nil, err
	}
	if err := validateAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	var (
		loan         *models.Loan
		result       *RepaymentResult
		transitioned bool
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loanRepo.GetForUpdate(ctx, loanID)
		if err != nil {
			return orNotFound(err, ErrLoanNotFound)
		}

		if input.IdempotencyKey != "" {
			prior, err := s.paymentRepo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
			switch {
			case err == nil:
				if prior.LoanID == nil || *prior.LoanID != loanID {
					return ErrIdempotencyReused
				}
				total, err := s.paymentRepo.SumByLoan(ctx, loanID)
				if err != nil {
					return err
				}
				result = &RepaymentResult{
					Repayment:   prior,
					TotalPaid:   total,
					LoanStatus:  loan.Status,
					FullyRepaid: loan.Status == domain.LoanRepaid,
					Replayed:    true,
				}
				return nil
			case !repositories.IsNotFound(err):
				return err
			}
		}

		payment := models.NewLoanRepayment(loan, input.Amount, input.Method, input.IdempotencyKey)
		payment.PaymentDate = s.now()
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		total, err := s.paymentRepo.SumByLoan(ctx, loanID)
		if err != nil {
			return err
		}

		status := loan.Status
		if total.GreaterThanOrEqual(loan.Amount) {
			transitioned, err = s.loanRepo.MarkRepaid(ctx, loanID)
			if err != nil {
				return err
			}
			status = domain.LoanRepaid
		}

		result = &RepaymentResult{
			Repayment:   payment,
			TotalPaid:   total,
			LoanStatus:  status,
			FullyRepaid: status == domain.LoanRepaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		s.metrics.Repayment("replayed")
		s.log.Info("repayment replayed",
			zap.Uint("loan_id", loanID),
			zap.String("idempotency_key", input.IdempotencyKey))
		return result, nil
	}

	s.metrics.Repayment("recorded")
	if transitioned {
		s.metrics.Repayment("completed")
		s.metrics.LoanTransition(string(domain.LoanRepaid))
	}

	s.notifyRepayment(ctx, loan, result, transitioned)

	s.log.Info("repayment recorded",
		zap.Uint("loan_id", loanID),
		zap.Uint("payment_id", result.Repayment.ID),
		zap.String("amount", money(input.Amount)),
		zap.String("total_paid", money(result.TotalPaid)),
		zap.String("loan_status", string(result.LoanStatus)))
	return result, nil
}

// ListRepayments lists the repayments of a loan the actor may see
func (s *LoanService) ListRepayments(ctx context.Context, actor *domain.Actor, loanID uint) ([]*models.Payment, error) {
	if err := authz.Authorize(actor, authz.RepaymentList, authz.NoOwner); err != nil {
		return nil, err
	}
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, orNotFound(err, ErrLoanNotFound)
	}
	if err := authz.Authorize(actor, authz.RepaymentList, ownerOf(loan.Member)); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, ErrNoRepayments
	}
	return payments, nil
}

// MarkOverdue moves approved loans past their due date to defaulted and
// tells each owner. It returns how many loans changed.
func (s *LoanService) MarkOverdue(ctx context.Context) (int, error) {
	loans, err := s.loanRepo.ListOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, loan := range loans {
		ok, err := s.loanRepo.UpdateStatus(ctx, loan.ID, domain.LoanApproved, domain.LoanDefaulted)
		if err != nil {
			return changed, err
		}
		if !ok {
			continue
		}
		changed++
		s.metrics.LoanTransition(string(domain.LoanDefaulted))
		s.notifyOwner(ctx, loan.Member, "Loan Overdue",
			fmt.Sprintf("Hello %s, your loan #%d passed its due date of %s and is now marked as defaulted.",
				nameOf(loan.Member), loan.ID, loan.DueDate.Format("2006-01-02")))
	}
	return changed, nil
}

func (s *LoanService) notifyRepayment(ctx context.Context, loan *models.Loan, result *RepaymentResult, transitioned bool) {
	member, err := s.memberRepo.GetByID(ctx, loan.MemberID)
	if err != nil {
		s.log.Error("failed to resolve loan owner", zap.Uint("loan_id", loan.ID), zap.Error(err))
		return
	}

	message := fmt.Sprintf("Dear %s, a repayment of %s has been recorded for your loan (ID: %d). Total paid so far: %s.",
		nameOf(member), money(result.Repayment.Amount), loan.ID, money(result.TotalPaid))
	if transitioned {
		message += " Your loan is now fully repaid! 🎉"
	}
	s.notifyOwner(ctx, member, "Loan Repayment Update", message)
}

func (s *LoanService) notifyOwner(ctx context.Context, member *models.Member, title, message string) {
	if member == nil {
		s.log.Warn("loan owner unresolved, notification skipped", zap.String("title", title))
		return
	}
	if _, err := s.notifier.Notify(ctx, member.UserID, title, message); err != nil {
		s.log.Error("failed to notify loan owner", zap.Uint("user_id", member.UserID), zap.Error(err))
	}
}
