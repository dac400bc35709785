package repositories

import (
	"context"

	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// reportRepository implements ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *reportRepository) CountMembers(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Member{}).Count(&count).Error
	return count, translate(err)
}

func (r *reportRepository) CountPolicies(ctx context.Context, ownerUserID uint) (int64, error) {
	var count int64
	err := ownedBy(conn(ctx, r.db).Model(&models.Policy{}), ownerUserID).Count(&count).Error
	return count, translate(err)
}

func (r *reportRepository) CountClaimsByStatus(ctx context.Context, ownerUserID uint) (map[string]int64, error) {
	return r.groupByStatus(ctx, &models.Claim{}, ownerUserID)
}

func (r *reportRepository) CountLoansByStatus(ctx context.Context, ownerUserID uint) (map[string]int64, error) {
	return r.groupByStatus(ctx, &models.Loan{}, ownerUserID)
}

// SumPayments totals payment amounts with the given status
func (r *reportRepository) SumPayments(ctx context.Context, ownerUserID uint, status domain.PaymentStatus) (decimal.Decimal, error) {
	return sumAmount(ownedBy(conn(ctx, r.db).Model(&models.Payment{}), ownerUserID).
		Where("status = ?", status))
}

func (r *reportRepository) groupByStatus(ctx context.Context, model interface{}, ownerUserID uint) (map[string]int64, error) {
	var rows []statusCount
	err := ownedBy(conn(ctx, r.db).Model(model), ownerUserID).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
