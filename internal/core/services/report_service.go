package services

import (
	"context"

	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/authz"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReportService builds dashboard aggregates. Each aggregate is its own query,
// so figures in one report may come from slightly different moments.
type ReportService struct {
	reportRepo repositories.ReportRepository
	memberRepo repositories.MemberRepository
	notifRepo  repositories.NotificationRepository
}

// NewReportService creates a new report service
func NewReportService(
	reportRepo repositories.ReportRepository,
	memberRepo repositories.MemberRepository,
	notifRepo repositories.NotificationRepository,
) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		memberRepo: memberRepo,
		notifRepo:  notifRepo,
	}
}

// Summary is the staff dashboard
type Summary struct {
	TotalMembers   int64            `json:"total_members"`
	TotalPolicies  int64            `json:"total_policies"`
	ClaimsByStatus map[string]int64 `json:"claims_by_status"`
	LoansByStatus  map[string]int64 `json:"loans_by_status"`
	TotalPayments  decimal.Decimal  `json:"total_payments"`
}

// MemberOverview is the member dashboard
type MemberOverview struct {
	MemberID            uint             `json:"member_id"`
	TotalPolicies       int64            `json:"total_policies"`
	ClaimsByStatus      map[string]int64 `json:"claims_by_status"`
	LoansByStatus       map[string]int64 `json:"loans_by_status"`
	TotalPayments       decimal.Decimal  `json:"total_payments"`
	UnreadNotifications int64            `json:"unread_notifications"`
}

// Summary runs the five staff aggregates concurrently. The first failure
// cancels the rest and fails the report.
func (s *ReportService) Summary(ctx context.Context, actor *domain.Actor) (*Summary, error) {
	if err := authz.Authorize(actor, authz.ReportSummary, authz.NoOwner); err != nil {
		return nil, err
	}

	out := &Summary{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalMembers, err = s.reportRepo.CountMembers(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalPolicies, err = s.reportRepo.CountPolicies(gctx, authz.NoOwner)
		return err
	})
	g.Go(func() (err error) {
		out.ClaimsByStatus, err = s.reportRepo.CountClaimsByStatus(gctx, authz.NoOwner)
		return err
	})
	g.Go(func() (err error) {
		out.LoansByStatus, err = s.reportRepo.CountLoansByStatus(gctx, authz.NoOwner)
		return err
	})
	g.Go(func() (err error) {
		out.TotalPayments, err = s.reportRepo.SumPayments(gctx, authz.NoOwner, domain.PaymentStatusSuccess)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MemberOverview aggregates the actor's own rows
func (s *ReportService) MemberOverview(ctx context.Context, actor *domain.Actor) (*MemberOverview, error) {
	if err := authz.Authorize(actor, authz.ReportSelf, authz.NoOwner); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, orNotFound(err, ErrMemberNotFound)
	}

	out := &MemberOverview{MemberID: member.ID}
	owner := actor.UserID
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalPolicies, err = s.reportRepo.CountPolicies(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		out.ClaimsByStatus, err = s.reportRepo.CountClaimsByStatus(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		out.LoansByStatus, err = s.reportRepo.CountLoansByStatus(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		out.TotalPayments, err = s.reportRepo.SumPayments(gctx, owner, domain.PaymentStatusSuccess)
		return err
	})
	g.Go(func() (err error) {
		out.UnreadNotifications, err = s.notifRepo.CountUnread(gctx, owner)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
