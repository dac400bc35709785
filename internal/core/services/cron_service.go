package services

import (
	"context"
	"time"

	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/config"
	"github.com/Taistois/mims/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron      *cron.Cron
	cfg       config.CronConfig
	loans     *LoanService
	tokenRepo repositories.RefreshTokenRepository
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewCronService creates a new cron service. Jobs are registered by Start.
func NewCronService(
	cfg config.CronConfig,
	loans *LoanService,
	tokenRepo repositories.RefreshTokenRepository,
	log *zap.Logger,
	m *metrics.Metrics,
) *CronService {
	log = log.Named("cron")
	cronLog := cron.PrintfLogger(zap.NewStdLog(log))

	return &CronService{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		cfg:       cfg,
		loans:     loans,
		tokenRepo: tokenRepo,
		log:       log,
		metrics:   m,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OverdueLoansSpec, func() { s.run("overdue_loans", s.MarkOverdueLoans) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.TokenCleanupSpec, func() { s.run("token_cleanup", s.PurgeExpiredTokens) }); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("overdue_loans", s.cfg.OverdueLoansSpec),
		zap.String("token_cleanup", s.cfg.TokenCleanupSpec))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// MarkOverdueLoans defaults approved loans past their due date
func (s *CronService) MarkOverdueLoans(ctx context.Context) error {
	n, err := s.loans.MarkOverdue(ctx)
	if n > 0 {
		s.log.Info("overdue loans defaulted", zap.Int("count", n))
	}
	return err
}

// PurgeExpiredTokens deletes refresh tokens past their expiry
func (s *CronService) PurgeExpiredTokens(ctx context.Context) error {
	n, err := s.tokenRepo.DeleteExpired(ctx)
	if n > 0 {
		s.log.Info("expired refresh tokens purged", zap.Int64("count", n))
	}
	return err
}

func (s *CronService) run(job string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.metrics.CronRun(job, "error")
		s.log.Error("job failed", zap.String("job", job), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.metrics.CronRun(job, "ok")
	s.log.Debug("job finished", zap.String("job", job), zap.Duration("took", time.Since(start)))
}
