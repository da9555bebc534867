package statistics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/types"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type BillingStatisticRequest struct {
	// StartDate/EndDate bound created_at, inclusive, format 2006-01-02.
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Filters   []*types.CommonFilter `json:"filters"`
}

type BillingStatisticItem struct {
	Date             string `json:"date"`
	TransactionCount int64  `json:"transaction_count"`
	RevenueCents     int64  `json:"revenue_cents"`
	FailedCount      int64  `json:"failed_count"`
}

type BillingStatisticResponse struct {
	Items []*BillingStatisticItem `json:"items"`
}

// filtersWhere combines admin-supplied filters into one expression.
type filtersWhere struct{ filters []*types.CommonFilter }

func (w filtersWhere) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

// GetDailyBillingStatistic aggregates transactions per day: volume, revenue
// from successful payments, and failure counts.
func (s *Service) GetDailyBillingStatistic(ctx context.Context, req *BillingStatisticRequest) (*BillingStatisticResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end_date before start_date")
	}

	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select(
			"date(created_at) AS date",
			"count(*) AS transaction_count",
			fmt.Sprintf("sum(CASE WHEN status = '%s' THEN amount_cents ELSE 0 END) AS revenue_cents", types.TransactionStatusSuccess),
			fmt.Sprintf("sum(CASE WHEN status = '%s' THEN 1 ELSE 0 END) AS failed_count", types.TransactionStatusFailed),
		).
		Where("created_at >= ? AND created_at < ?", start, end.AddDate(0, 0, 1)).
		Group("date(created_at)").
		Order("date(created_at)")

	if len(req.Filters) > 0 {
		q = q.Where(clause.Where{Exprs: []clause.Expression{filtersWhere{filters: req.Filters}}})
	}

	var items []*BillingStatisticItem
	if err := q.Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate statistics: %w", err)
	}

	return &BillingStatisticResponse{Items: items}, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
