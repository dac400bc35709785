package services

import (
	"context"
	"testing"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/config"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCronRejectsBadSchedule(t *testing.T) {
	e := newTestEnv(t)
	c := NewCronService(config.CronConfig{OverdueLoansSpec: "every tuesday", TokenCleanupSpec: "@daily"},
		e.loans, e.tokenRepo, zap.NewNop(), nil)
	assert.Error(t, c.Start())
}

func TestCronJobs(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()
	c := NewCronService(config.CronConfig{OverdueLoansSpec: "@hourly", TokenCleanupSpec: "@daily"},
		e.loans, e.tokenRepo, zap.NewNop(), nil)

	require.NoError(t, e.tokenRepo.Create(ctx, &models.RefreshToken{
		UserID: w.alice.ID, TokenHash: "stale", ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, e.tokenRepo.Create(ctx, &models.RefreshToken{
		UserID: w.alice.ID, TokenHash: "fresh", ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, c.PurgeExpiredTokens(ctx))

	_, err := e.tokenRepo.GetByTokenHash(ctx, "stale")
	assert.Error(t, err)
	_, err = e.tokenRepo.GetByTokenHash(ctx, "fresh")
	assert.NoError(t, err)

	e.loans.now = func() time.Time { return loanClock }
	loan := e.loan(t, w, "100", 1)
	_, err = e.loans.UpdateStatus(ctx, w.staff.Actor(), loan.ID, &UpdateLoanStatusInput{Status: "approved"})
	require.NoError(t, err)
	e.loans.now = func() time.Time { return loanClock.AddDate(1, 0, 0) }

	c.run("overdue_loans", c.MarkOverdueLoans)

	got, err := e.loanRepo.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanDefaulted, got.Status)

	require.NoError(t, c.Start())
	c.Stop()
}
