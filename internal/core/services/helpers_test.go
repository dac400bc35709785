package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/adapters/realtime"
	"github.com/Taistois/mims/internal/config"
	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/pkg/password"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

// recordingPusher captures pushes and optionally fails them
type recordingPusher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (p *recordingPusher) Push(_ context.Context, userID uint, event realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.UserID = userID
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// failingNotifier refuses every notification
type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, uint, string, string) (*models.Notification, error) {
	return nil, errors.New("notification store unavailable")
}

func (failingNotifier) NotifyStaff(context.Context, string, string) ([]*models.Notification, error) {
	return nil, errors.New("notification store unavailable")
}

type testEnv struct {
	db *gorm.DB

	userRepo    repositories.UserRepository
	tokenRepo   repositories.RefreshTokenRepository
	memberRepo  repositories.MemberRepository
	policyRepo  repositories.PolicyRepository
	claimRepo   repositories.ClaimRepository
	loanRepo    repositories.LoanRepository
	paymentRepo repositories.PaymentRepository
	notifRepo   repositories.NotificationRepository
	reportRepo  repositories.ReportRepository
	tx          repositories.TxManager

	pusher *recordingPusher

	notifications *NotificationService
	claims        *ClaimService
	loans         *LoanService
	payments      *PaymentService
	policies      *PolicyService
	members       *MemberService
	users         *UserService
	auth          *AuthService
	reports       *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zap.NewNop()
	e := &testEnv{
		db:          db,
		userRepo:    repositories.NewUserRepository(db),
		tokenRepo:   repositories.NewRefreshTokenRepository(db),
		memberRepo:  repositories.NewMemberRepository(db),
		policyRepo:  repositories.NewPolicyRepository(db),
		claimRepo:   repositories.NewClaimRepository(db),
		loanRepo:    repositories.NewLoanRepository(db),
		paymentRepo: repositories.NewPaymentRepository(db),
		notifRepo:   repositories.NewNotificationRepository(db),
		reportRepo:  repositories.NewReportRepository(db),
		tx:          repositories.NewTxManager(db),
		pusher:      &recordingPusher{},
	}

	e.notifications = NewNotificationService(e.notifRepo, e.userRepo, e.pusher, log, nil)
	e.claims = NewClaimService(e.claimRepo, e.policyRepo, e.notifications, log, nil)
	e.loans = NewLoanService(e.tx, e.loanRepo, e.memberRepo, e.paymentRepo, e.notifications, log, nil)
	e.payments = NewPaymentService(e.tx, e.paymentRepo, e.claimRepo, e.memberRepo, e.notifications, log, nil)
	e.policies = NewPolicyService(e.policyRepo, e.memberRepo, log)
	e.members = NewMemberService(e.memberRepo, e.userRepo, log)
	e.users = NewUserService(e.userRepo, e.tokenRepo, log)
	e.auth = NewAuthService(e.userRepo, e.tokenRepo, config.JWTConfig{
		Secret:           "test-secret",
		RefreshSecret:    "test-refresh-secret",
		AccessTokenMins:  15,
		RefreshTokenDays: 7,
	}, log)
	e.reports = NewReportService(e.reportRepo, e.memberRepo, e.notifRepo)
	return e
}

func (e *testEnv) user(t *testing.T, name, email string, role domain.Role) *models.User {
	t.Helper()
	hashed, err := password.Hash("password123")
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, Password: hashed, Role: role}
	require.NoError(t, e.userRepo.Create(context.Background(), u))
	return u
}

func (e *testEnv) member(t *testing.T, u *models.User) *models.Member {
	t.Helper()
	m := &models.Member{UserID: u.ID, NationalID: "NID-" + u.Email}
	require.NoError(t, e.memberRepo.Create(context.Background(), m))
	return m
}

func (e *testEnv) policy(t *testing.T, m *models.Member) *models.Policy {
	t.Helper()
	p := &models.Policy{
		MemberID:       m.ID,
		PolicyType:     "health",
		PremiumAmount:  decimal.NewFromInt(100),
		CoverageAmount: decimal.NewFromInt(10000),
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:         domain.PolicyActive,
	}
	require.NoError(t, e.policyRepo.Create(context.Background(), p))
	return p
}

func (e *testEnv) notificationsOf(t *testing.T, userID uint) []*models.Notification {
	t.Helper()
	list, _, err := e.notifRepo.ListByUser(context.Background(), userID, repositories.ListOptions{})
	require.NoError(t, err)
	return list
}

// world is the usual cast: an admin, a staff user and two members with a policy each
type world struct {
	admin, staff, alice, bob *models.User
	aliceMember, bobMember   *models.Member
	alicePolicy, bobPolicy   *models.Policy
}

func (e *testEnv) world(t *testing.T) *world {
	t.Helper()
	w := &world{
		admin: e.user(t, "Admin", "admin@mims.test", domain.RoleAdmin),
		staff: e.user(t, "Staff", "staff@mims.test", domain.RoleInsuranceStaff),
		alice: e.user(t, "Alice", "alice@mims.test", domain.RoleMember),
		bob:   e.user(t, "Bob", "bob@mims.test", domain.RoleMember),
	}
	w.aliceMember = e.member(t, w.alice)
	w.bobMember = e.member(t, w.bob)
	w.alicePolicy = e.policy(t, w.aliceMember)
	w.bobPolicy = e.policy(t, w.bobMember)
	return w
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
