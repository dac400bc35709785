package routes

import (
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/adapters/realtime"
	"github.com/Taistois/mims/internal/config"
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide resources the API is built from
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics

	// Pusher delivers realtime events; Registry tracks this instance's
	// stream connections. Either may be nil.
	Pusher   realtime.Pusher
	Registry realtime.Registry
}

// Container holds the wired repositories and services
type Container struct {
	RefreshTokens repositories.RefreshTokenRepository

	Auth          *services.AuthService
	Users         *services.UserService
	Members       *services.MemberService
	Policies      *services.PolicyService
	Claims        *services.ClaimService
	Loans         *services.LoanService
	Payments      *services.PaymentService
	Notifications *services.NotificationService
	Reports       *services.ReportService
}

// NewContainer builds repositories and services over d.DB
func NewContainer(d *Deps) *Container {
	db := d.DB

	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	policyRepo := repositories.NewPolicyRepository(db)
	claimRepo := repositories.NewClaimRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	notifRepo := repositories.NewNotificationRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	tx := repositories.NewTxManager(db)

	notifications := services.NewNotificationService(notifRepo, userRepo, d.Pusher, d.Log, d.Metrics)

	return &Container{
		RefreshTokens: refreshTokenRepo,

		Auth:          services.NewAuthService(userRepo, refreshTokenRepo, d.Config.JWT, d.Log),
		Users:         services.NewUserService(userRepo, refreshTokenRepo, d.Log),
		Members:       services.NewMemberService(memberRepo, userRepo, d.Log),
		Policies:      services.NewPolicyService(policyRepo, memberRepo, d.Log),
		Claims:        services.NewClaimService(claimRepo, policyRepo, notifications, d.Log, d.Metrics),
		Loans:         services.NewLoanService(tx, loanRepo, memberRepo, paymentRepo, notifications, d.Log, d.Metrics),
		Payments:      services.NewPaymentService(tx, paymentRepo, claimRepo, memberRepo, notifications, d.Log, d.Metrics),
		Notifications: notifications,
		Reports:       services.NewReportService(reportRepo, memberRepo, notifRepo),
	}
}
