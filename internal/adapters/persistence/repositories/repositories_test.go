package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/config"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedMember(t *testing.T, db *gorm.DB, name string) (*models.User, *models.Member) {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Password: "x", Role: domain.RoleMember}
	require.NoError(t, db.Create(u).Error)
	m := &models.Member{UserID: u.ID, NationalID: "NID-" + name}
	require.NoError(t, db.Omit("User").Create(m).Error)
	return u, m
}

func seedLoan(t *testing.T, db *gorm.DB, member *models.Member, status domain.LoanStatus) *models.Loan {
	t.Helper()
	l := &models.Loan{
		MemberID:     member.ID,
		Amount:       decimal.NewFromInt(1000),
		InterestRate: decimal.NewFromFloat(5),
		Duration:     6,
		Status:       status,
		DueDate:      time.Now().AddDate(0, 6, 0),
	}
	require.NoError(t, db.Omit("Member").Create(l).Error)
	return l
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTranslate(t *testing.T) {
	classified := domain.Validationf("amount must be greater than 0")

	tests := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{"record not found", gorm.ErrRecordNotFound, domain.KindNotFound},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), domain.KindNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, domain.KindConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), domain.KindConflict},
		{"mysql duplicate", errors.New("Error 1062: Duplicate entry 'a@b.c' for key 'email'"), domain.KindConflict},
		{"bad conn", driver.ErrBadConn, domain.KindTransient},
		{"deadline", context.DeadlineExceeded, domain.KindTransient},
		{"net timeout", timeoutErr{}, domain.KindTransient},
		{"refused text", errors.New("dial tcp 127.0.0.1:5432: connection refused"), domain.KindTransient},
		{"locked", errors.New("database is locked"), domain.KindTransient},
		{"unknown", errors.New("syntax error near FROM"), domain.KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			assert.Equal(t, tt.kind, domain.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, translate(nil))
	assert.Same(t, classified, translate(classified))
	assert.True(t, IsNotFound(translate(gorm.ErrRecordNotFound)))
	assert.True(t, IsNotFound(ErrRecordNotFound))
	assert.False(t, IsNotFound(translate(gorm.ErrDuplicatedKey)))
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "dup@example.com", Password: "x", Role: domain.RoleMember}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "dup@example.com", Password: "x", Role: domain.RoleMember})
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	exists, err := repo.ExistsByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(repo.Delete(ctx, 999)))
}

func TestTxManager(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	tm := NewTxManager(db)
	ctx := context.Background()

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := tm.Transaction(ctx, func(ctx context.Context) error {
			require.NotNil(t, TransactionFromContext(ctx))
			require.NoError(t, users.Create(ctx, &models.User{Name: "Tx", Email: "tx@example.com", Password: "x", Role: domain.RoleMember}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		exists, err := users.ExistsByEmail(ctx, "tx@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("commits and joins the outer transaction", func(t *testing.T) {
		err := tm.Transaction(ctx, func(outer context.Context) error {
			return tm.Transaction(outer, func(inner context.Context) error {
				assert.Same(t, TransactionFromContext(outer), TransactionFromContext(inner))
				return users.Create(inner, &models.User{Name: "Ok", Email: "ok@example.com", Password: "x", Role: domain.RoleMember})
			})
		})
		require.NoError(t, err)

		exists, err := users.ExistsByEmail(ctx, "ok@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestLoanRepositoryStatusGuards(t *testing.T) {
	db := newTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()
	_, member := seedMember(t, db, "alice")
	loan := seedLoan(t, db, member, domain.LoanPending)

	ok, err := repo.UpdateStatus(ctx, loan.ID, domain.LoanApproved, domain.LoanDefaulted)
	require.NoError(t, err)
	assert.False(t, ok, "from does not match")

	ok, err = repo.UpdateStatus(ctx, loan.ID, domain.LoanPending, domain.LoanApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkRepaid(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkRepaid(ctx, loan.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second call is a no-op")

	got, err := repo.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanRepaid, got.Status)
	require.NotNil(t, got.Member)
	require.NotNil(t, got.Member.User)
	assert.Equal(t, "alice", got.Member.User.Name)

	err = NewTxManager(db).Transaction(ctx, func(ctx context.Context) error {
		locked, err := repo.GetForUpdate(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.ID, locked.ID)
		return nil
	})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, 12345)
	assert.True(t, IsNotFound(err))
}

func TestLoanRepositoryListScopesAndOrders(t *testing.T) {
	db := newTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	alice, aliceMember := seedMember(t, db, "alice")
	bob, bobMember := seedMember(t, db, "bob")

	first := seedLoan(t, db, aliceMember, domain.LoanPending)
	seedLoan(t, db, bobMember, domain.LoanPending)
	last := seedLoan(t, db, aliceMember, domain.LoanApproved)

	all, total, err := repo.List(ctx, 0, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	mine, total, err := repo.List(ctx, alice.ID, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, mine, 2)
	assert.Equal(t, last.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	page, total, err := repo.List(ctx, alice.ID, ListOptions{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	theirs, total, err := repo.List(ctx, bob.ID, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, theirs, 1)
	assert.Equal(t, bobMember.ID, theirs[0].MemberID)
}

func TestLoanRepositoryListOverdue(t *testing.T) {
	db := newTestDB(t)
	repo := NewLoanRepository(db)
	_, member := seedMember(t, db, "alice")

	overdue := seedLoan(t, db, member, domain.LoanApproved)
	require.NoError(t, db.Model(overdue).Update("due_date", time.Now().Add(-48*time.Hour)).Error)
	pendingPastDue := seedLoan(t, db, member, domain.LoanPending)
	require.NoError(t, db.Model(pendingPastDue).Update("due_date", time.Now().Add(-48*time.Hour)).Error)
	seedLoan(t, db, member, domain.LoanApproved)

	loans, err := repo.ListOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, overdue.ID, loans[0].ID)
}

func TestPaymentRepositoryIdempotencyKeyIsUnique(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	_, member := seedMember(t, db, "alice")
	loan := seedLoan(t, db, member, domain.LoanApproved)

	require.NoError(t, repo.Create(ctx, models.NewLoanRepayment(loan, decimal.NewFromInt(400), "cash", "key-1")))
	require.NoError(t, repo.Create(ctx, models.NewLoanRepayment(loan, decimal.NewFromInt(100), "cash", "")))
	require.NoError(t, repo.Create(ctx, models.NewLoanRepayment(loan, decimal.NewFromInt(100), "cash", "")))

	err := repo.Create(ctx, models.NewLoanRepayment(loan, decimal.NewFromInt(400), "cash", "key-1"))
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	got, err := repo.GetByIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "400.00", got.Amount.StringFixed(2))

	sum, err := repo.SumByLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "600.00", sum.StringFixed(2))

	ledger, err := repo.ListByLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 3)
}

func TestNotificationRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	alice, _ := seedMember(t, db, "alice")
	bob, _ := seedMember(t, db, "bob")

	var ids []uint
	for i := 0; i < 3; i++ {
		n := &models.Notification{UserID: alice.ID, Title: fmt.Sprintf("n%d", i), Message: "m"}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: bob.ID, Title: "other", Message: "m"}))

	list, total, err := repo.ListByUser(ctx, alice.ID, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, []uint{ids[2], ids[1], ids[0]}, []uint{list[0].ID, list[1].ID, list[2].ID})

	unread, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	readAt := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, repo.MarkRead(ctx, ids[0], readAt))
	require.NoError(t, repo.MarkRead(ctx, ids[0], time.Now()))

	n, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	require.NotNil(t, n.ReadAt)
	assert.WithinDuration(t, readAt, *n.ReadAt, time.Second)

	unread, err = repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	require.NoError(t, repo.Delete(ctx, ids[1]))
	assert.True(t, IsNotFound(repo.Delete(ctx, ids[1])))
}

func TestPaymentTotals(t *testing.T) {
	db := newTestDB(t)
	payments := NewPaymentRepository(db)
	reports := NewReportRepository(db)
	ctx := context.Background()

	alice, aliceMember := seedMember(t, db, "alice")
	_, bobMember := seedMember(t, db, "bob")
	aliceLoan := seedLoan(t, db, aliceMember, domain.LoanApproved)
	bobLoan := seedLoan(t, db, bobMember, domain.LoanApproved)

	sum, err := payments.SumByLoan(ctx, aliceLoan.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	for _, amount := range []string{"0.10", "0.20", "100.05"} {
		require.NoError(t, payments.Create(ctx, models.NewLoanRepayment(aliceLoan, decimal.RequireFromString(amount), "cash", "")))
	}
	require.NoError(t, payments.Create(ctx, models.NewLoanRepayment(bobLoan, decimal.NewFromInt(50), "cash", "")))

	sum, err = payments.SumByLoan(ctx, aliceLoan.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.35", sum.StringFixed(2))

	all, err := reports.SumPayments(ctx, 0, domain.PaymentStatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, "150.35", all.StringFixed(2))

	mine, err := reports.SumPayments(ctx, alice.ID, domain.PaymentStatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, "100.35", mine.StringFixed(2))

	none, err := reports.SumPayments(ctx, 0, domain.PaymentStatusFailed)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}
